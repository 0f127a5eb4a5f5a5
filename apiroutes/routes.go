package apiroutes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bidtounsi/go-bidtounsi-server/api"
	"github.com/bidtounsi/go-bidtounsi-server/api/interceptors"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/metrics"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/services"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

// REST API routes
func ConfigRoutes(router *gin.Engine, dbSelector repository.DBSelector, env *types.Environment) *gin.Engine {
	// init metrics
	if global.Conf.Prometheus.Enabled {

		metrics.InitMetrics()

		authorized := router.Group("/metrics", gin.BasicAuth(gin.Accounts{
			global.Conf.Prometheus.Username: global.Conf.Prometheus.Password,
		}))

		authorized.GET("", gin.WrapH(promhttp.Handler()))
	}

	// SERVICE definitions
	adminKeyService := services.NewAdminKeyService(dbSelector)
	userService := services.NewUserService(dbSelector)
	notificationService := services.NewNotificationService(env)

	// API definitions
	healthApi := api.NewHealthCheckAPI()
	adminKeyApi := api.NewAdminKeyApi(adminKeyService, userService, notificationService)
	adminAccountApi := api.NewAdminAccountApi(adminKeyService, userService, notificationService)
	contactApi := api.NewContactApi(env)
	identityApi, idErr := api.NewIdentityApi(context.Background())
	if idErr != nil {
		panic(idErr)
	}

	// PUBLIC API
	publicApi := router.Group("/api", metrics.MetricsMiddleware(), interceptors.RateLimitMiddleware())
	{
		publicApi.GET("/v1/healthcheck", healthApi.HealthCheck)
		publicApi.GET("/v1/admin/keys/status/:email", adminKeyApi.KeyStatus)
		publicApi.POST("/v1/admin/identity/verify", identityApi.VerifyIdentity)
		publicApi.POST("/v1/contact", contactApi.SubmitContact)
	}

	// capability-gated provisioning API (requires a fresh identity assertion)
	capabilityApi := router.Group("/api", metrics.MetricsMiddleware(), interceptors.RateLimitMiddleware(), interceptors.CapabilityMiddleware())
	{
		capabilityApi.POST("/v1/admin/keys/request", adminKeyApi.RequestKey)
		capabilityApi.POST("/v1/admin/keys/resend", adminKeyApi.ResendKey)
		capabilityApi.POST("/v1/admin/register", adminAccountApi.RegisterAdmin)
	}

	return router
}
