package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/service"
	"github.com/jimyag/pvegate/pkg/ginx"
)

// HealthResponse GET /healthz 的响应
type HealthResponse struct {
	OK        bool   `json:"ok"`
	Host      string `json:"host"`
	Realm     string `json:"realm"`
	VerifySSL bool   `json:"verify_ssl"`
}

type Health struct {
	defaults service.Defaults
}

func NewHealth(defaults service.Defaults) *Health {
	return &Health{defaults: defaults}
}

func (h *Health) RegisterRoutes(router gin.IRouter) {
	router.GET("/healthz", ginx.Adapt2(h.Healthz))
}

func (h *Health) Healthz(c *gin.Context) *HealthResponse {
	return &HealthResponse{
		OK:        true,
		Host:      h.defaults.Host,
		Realm:     h.defaults.Realm,
		VerifySSL: h.defaults.VerifyTLS,
	}
}
