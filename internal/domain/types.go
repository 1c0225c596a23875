package domain

type (
	UserId   = int64
	PostId   = int64
	FileId   = int64
	Username = string
	Password = string
)
