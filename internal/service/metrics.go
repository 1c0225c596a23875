package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factshield_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	postsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factshield_posts_created_total",
			Help: "Case files created",
		},
	)

	postsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factshield_posts_deleted_total",
			Help: "Case files deleted",
		},
	)

	attachmentBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factshield_attachment_bytes_total",
			Help: "Bytes of attachments stored",
		},
	)

	gcFilesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factshield_gc_files_deleted_total",
			Help: "Orphaned files removed by the media garbage collector",
		},
	)

	gcLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factshield_gc_last_run_timestamp_seconds",
			Help: "Unix time of the last completed media garbage collection",
		},
	)

	gcLastRunOrphans = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factshield_gc_last_run_orphans",
			Help: "Orphaned files found by the last media garbage collection",
		},
	)

	gcLastRunBytesReclaimed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factshield_gc_last_run_bytes_reclaimed",
			Help: "Bytes freed by the last media garbage collection",
		},
	)

	gcLastRunErrors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factshield_gc_last_run_errors",
			Help: "Delete failures in the last media garbage collection",
		},
	)
)
