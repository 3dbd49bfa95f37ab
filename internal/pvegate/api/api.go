// Package api 提供 pvegate 的 HTTP 接口：登录、会话重置、VM 列表和批量操作
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/relay"
	"github.com/jimyag/pvegate/internal/pvegate/service"
	"github.com/jimyag/pvegate/internal/pvegate/session"
	"github.com/jimyag/pvegate/pkg/idgen"
)

// Options HTTP 层的配置
type Options struct {
	Address string

	// FrameAncestors 允许嵌入页面的来源，为空时不输出 frame-ancestors
	FrameAncestors []string

	Policy   relay.Policy
	Defaults service.Defaults
}

// Services API 依赖的服务
type Services struct {
	Auth      AuthServiceInterface
	Inventory InventoryServiceInterface
	Bulk      BulkServiceInterface
	Console   ConsoleServiceInterface
}

type API struct {
	engine *gin.Engine
	server *http.Server

	auth   *Auth
	vm     *VM
	health *Health
}

func New(opts Options, services Services, store *session.Store, guard *session.Guard) (*API, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	engine := gin.New()
	engine.ContextWithFallback = true
	engine.SetHTMLTemplate(templates)
	engine.Use(gin.Recovery(), requestContext(idgen.DefaultGenerator()), accessLog())
	if len(opts.FrameAncestors) > 0 {
		engine.Use(frameAncestors(opts.FrameAncestors))
	}

	sess := &sessions{
		store:       store,
		guard:       guard,
		policy:      opts.Policy,
		defaultHost: opts.Defaults.Host,
	}

	api := &API{
		engine: engine,
		auth:   NewAuth(services.Auth, sess),
		vm:     NewVM(services.Inventory, services.Bulk, services.Console, sess),
		health: NewHealth(opts.Defaults),
	}
	api.auth.RegisterRoutes(engine)
	api.vm.RegisterRoutes(engine)
	api.health.RegisterRoutes(engine)

	api.server = &http.Server{
		Addr:    opts.Address,
		Handler: engine,
	}
	return api, nil
}

// Handler 返回 HTTP handler，便于测试
func (a *API) Handler() http.Handler {
	return a.engine
}

func (a *API) Run(ctx context.Context) error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (a *API) Name() string {
	return "pvegate API"
}
