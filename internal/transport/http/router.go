package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mobileshield/internal/infrastructure/security"
	"mobileshield/internal/middleware"
)

type RouterDeps struct {
	Auth       *AuthHandler
	Device     *DeviceHandler
	Scan       *ScanHandler
	Payment    *PaymentHandler
	Quarantine *QuarantineHandler
	Admin      *AdminHandler
	URL        *URLHandler
	Telemetry  *TelemetryHandler

	TokenManager    *security.TokenManager
	Limiter         *middleware.RateLimiter
	AllowedOrigins  string
	CommandsPerHour int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	config := cors.DefaultConfig()
	if deps.AllowedOrigins != "" {
		config.AllowOrigins = strings.Split(deps.AllowedOrigins, ",")
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploads authenticate with the signed URL, not a JWT.
	r.PUT("/upload/*key", deps.Quarantine.Upload)

	authRequired := middleware.AuthMiddleware(deps.TokenManager)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/verify", deps.Limiter.Limit("oauth", 20, time.Minute), deps.Auth.OAuthVerify)
			auth.POST("/email-register", deps.Limiter.Limit("register", 5, time.Minute), deps.Auth.EmailRegister)
			auth.POST("/email-login", deps.Limiter.Limit("login", 5, time.Minute), deps.Auth.EmailLogin)
			auth.POST("/refresh", deps.Auth.Refresh)
		}

		device := api.Group("/device", authRequired)
		{
			device.POST("/register", deps.Device.Register)
			device.GET("/list", deps.Device.List)
			device.POST("/command", deps.Limiter.LimitUser("command", deps.CommandsPerHour, time.Hour), deps.Device.Command)
			device.POST("/location", deps.Device.Location)
			device.GET("/commands", deps.Device.ListCommands)
		}

		scan := api.Group("/scan", authRequired)
		{
			scan.POST("/hash-check", deps.Limiter.LimitUser("hash_check", 60, time.Minute), deps.Scan.HashCheck)
			scan.POST("/report", deps.Scan.Report)
		}

		payment := api.Group("/payment", authRequired)
		{
			payment.POST("/verify", deps.Payment.VerifyReceipt)
		}
		// The mobile clients call this both ways.
		api.GET("/subscription/current", authRequired, deps.Payment.CurrentSubscription)
		api.POST("/subscription/current", authRequired, deps.Payment.CurrentSubscription)

		quarantine := api.Group("/quarantine", authRequired)
		{
			quarantine.POST("/signed-upload", deps.Quarantine.SignedUpload)
			quarantine.GET("/list", deps.Quarantine.List)
			quarantine.POST("/status", deps.Quarantine.UpdateStatus)
		}

		admin := api.Group("/admin", authRequired, middleware.AdminOnly())
		{
			admin.POST("/threats/upload", deps.Admin.UploadThreats)
		}
		api.GET("/admin/threats/version", authRequired, deps.Admin.SignatureDBInfo)

		api.POST("/url/classify", authRequired, deps.URL.Classify)
		api.POST("/telemetry/batch", authRequired, deps.Telemetry.Batch)
	}

	return r
}
