package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"golang.org/x/sync/singleflight"

	"github.com/topi314/chapter-events/server/auth"
	"github.com/topi314/chapter-events/server/database"
	"github.com/topi314/chapter-events/server/rsvp"
)

const (
	sessionCleanupInterval = time.Hour
	stateCleanupInterval   = 5 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

type webhookClient interface {
	CreateContent(content string, opts ...rest.RequestOpt) (*discord.Message, error)
	Close(ctx context.Context)
}

func New(cfg Config) (*Server, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var hook webhookClient
	if cfg.Notifications.Enabled {
		client, err := webhook.NewWithURL(cfg.Notifications.WebhookURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create webhook client: %w", err)
		}
		hook = client
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Cfg:        cfg,
		DB:         db,
		Auth:       auth.New(cfg.Auth, cfg.Server.PublicURL),
		HttpClient: &http.Client{Timeout: 10 * time.Second},
		Limiter:    NewLimiter(cfg.RateLimit),
		webhook:    hook,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.Workflow = rsvp.NewWorkflow(&eventStore{server: s})

	return s, nil
}

type Server struct {
	Cfg        Config
	DB         *database.Database
	Auth       *auth.Auth
	HttpClient *http.Client
	Limiter    *Limiter
	Workflow   *rsvp.Workflow

	server  *http.Server
	webhook webhookClient
	events  singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *Server) Start(handler http.Handler) {
	s.server = &http.Server{
		Addr:    s.Cfg.Server.Addr,
		Handler: handler,
	}

	go s.DB.CleanupSessions(s.ctx, sessionCleanupInterval)
	go s.Auth.CleanupStates(s.ctx, stateCleanupInterval)
	go s.Limiter.Cleanup(s.ctx, limiterCleanupInterval)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", slog.Any("err", err))
		}
	}()
}

func (s *Server) Stop() {
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown failed", slog.Any("err", err))
		}
	}

	if s.webhook != nil {
		s.webhook.Close(ctx)
	}

	if err := s.DB.Close(); err != nil {
		slog.Error("Failed to close database", slog.Any("err", err))
	}
}
