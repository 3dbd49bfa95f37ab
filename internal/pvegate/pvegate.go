// Package pvegate 提供 pvegate 服务的主入口和初始化逻辑
package pvegate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jimmicro/grace"
	"github.com/jimyag/pvegate/internal/pvegate/api"
	"github.com/jimyag/pvegate/internal/pvegate/config"
	"github.com/jimyag/pvegate/internal/pvegate/relay"
	"github.com/jimyag/pvegate/internal/pvegate/service"
	"github.com/jimyag/pvegate/internal/pvegate/session"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg *config.Config
	api *api.API
}

func New(cfg *config.Config) (*Server, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	if cfg.DefaultSecret() {
		logger.Warn().Msg("SESSION_SECRET_KEY is not set; using the built-in placeholder. Set a random secret in production")
	}

	// 1. 上游客户端
	client := pveclient.New(
		pveclient.WithTimeout(cfg.UpstreamTimeout),
		pveclient.WithDebugHTTP(cfg.DebugHTTP),
	)

	// 2. 会话
	store, err := session.NewStore(cfg.SessionSecretKey)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	guard := session.NewGuard(cfg.SessionSoftExpiry)

	// 3. 服务
	defaults := service.Defaults{
		Host:      cfg.ProxmoxHost,
		Port:      cfg.ProxmoxPort,
		Realm:     cfg.ProxmoxRealm,
		VerifyTLS: cfg.VerifySSL,
	}
	inventory := service.NewInventoryService(client)
	services := api.Services{
		Auth:      service.NewAuthService(client, defaults, nil),
		Inventory: inventory,
		Bulk:      service.NewBulkService(client, inventory),
		Console:   service.NewConsoleService(cfg.ConsolePath),
	}

	// 4. API
	opts := api.Options{
		Address:  cfg.Address,
		Policy:   relay.Policy{CrossSiteEmbedding: cfg.EmbedCookies},
		Defaults: defaults,
	}
	if cfg.EmbedAllow {
		opts.FrameAncestors = cfg.EmbedAllowOrigins
	}
	apiInstance, err := api.New(opts, services, store, guard)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("proxmox_host", cfg.ProxmoxHost).
		Str("proxmox_port", cfg.ProxmoxPort).
		Bool("verify_ssl", cfg.VerifySSL).
		Bool("embed_cookies", cfg.EmbedCookies).
		Dur("soft_expiry", cfg.SessionSoftExpiry).
		Msg("Server configured")

	return &Server{
		cfg: cfg,
		api: apiInstance,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	services := []grace.Grace{
		s.api,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.api.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "pvegate"
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	l.write(zerolog.DefaultContextLogger.Info(), msg, args)
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	l.write(zerolog.DefaultContextLogger.Error(), msg, args)
}

func (l *zerologLogger) write(event *zerolog.Event, msg string, args []interface{}) {
	if len(args) > 0 {
		event.Msgf(msg, args...)
		return
	}
	event.Msg(msg)
}
