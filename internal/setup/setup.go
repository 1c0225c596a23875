package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/factshield/factshield/internal/config"
	"github.com/factshield/factshield/internal/handler"
	"github.com/factshield/factshield/internal/markdown"
	mw "github.com/factshield/factshield/internal/middleware"
	"github.com/factshield/factshield/internal/middleware/ratelimiter"
	"github.com/factshield/factshield/internal/service"
	"github.com/factshield/factshield/internal/session"
	"github.com/factshield/factshield/internal/storage/fs"
	"github.com/factshield/factshield/internal/storage/sqlstore"
	"github.com/factshield/factshield/web"
)

// loginLimiterExpiration drops idle per-IP buckets.
const loginLimiterExpiration = time.Hour

type Dependencies struct {
	Config         *config.Config
	Storage        *sqlstore.Storage
	Media          *fs.Storage
	Sessions       *session.Store
	Auth           *service.Auth
	Content        *service.Content
	GC             *service.MediaGarbageCollector
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	LoginLimiter   *ratelimiter.KeyedLimiter
}

// SetupDependencies opens the database and the file store and wires the
// services on top of them. Background work is started separately by Start.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	store, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	media, err := fs.New(cfg.Public.UploadDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	sessions := session.NewStore(cfg.Public.SessionTTL)
	jwtSvc := session.NewJwt(cfg.Private.SessionKey, cfg.Public.SessionTTL)
	auth := service.NewAuth(store, sessions, jwtSvc, &cfg.Public)
	content := service.NewContent(store, media)
	gc := service.NewMediaGarbageCollector(store, media, cfg.Public.Sweep.SafetyThreshold)

	templates, err := handler.LoadTemplates(web.Templates(), markdown.New())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Dependencies{
		Config:         cfg,
		Storage:        store,
		Media:          media,
		Sessions:       sessions,
		Auth:           auth,
		Content:        content,
		GC:             gc,
		Handler:        handler.New(templates, cfg.Public, auth, content, store),
		AuthMiddleware: mw.NewAuth(auth, cfg.Public.SecureCookies),
		LoginLimiter:   ratelimiter.New(cfg.Public.LoginRateLimit.PerSecond, cfg.Public.LoginRateLimit.Burst, loginLimiterExpiration),
	}, nil
}

// Start launches the housekeeping goroutines. They stop when ctx is done.
func (d *Dependencies) Start(ctx context.Context) {
	d.Sessions.StartBackgroundCleanup(ctx, time.Minute)
	d.LoginLimiter.StartBackgroundCleanup(ctx)
	if d.Config.Public.Sweep.Interval > 0 {
		d.GC.StartBackgroundCleanup(ctx, d.Config.Public.Sweep.Interval)
	}
}

func (d *Dependencies) Close() error {
	return d.Storage.Close()
}
