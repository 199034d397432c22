// Package api contains all endpoints available
package api

import (
	"fmt"
	"net/http"
	"time"

	"vpndrop/files-api/middleware"
	"vpndrop/files-api/registry"
	"vpndrop/files-api/security"
	"vpndrop/files-api/service"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Router   *gin.Engine
	Registry *registry.Registry
	Argon    *security.ArgonHash
	Sessions *security.SessionStore
	Stager   *service.Stager
}

func NewRouter() (*API, error) {
	a := &API{
		Argon:    security.New(),
		Sessions: security.NewSessionStore(),
		Stager:   &service.Stager{Dir: viper.GetString("storage.uploads_dir")},
	}

	reg, err := registry.New(viper.GetString("storage.registry_file"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file registry, %w", err)
	}
	a.Registry = reg

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	auth := middleware.NewAdminAuth(a.Sessions)
	maxUploadSize := viper.GetInt64("upload.max_size")

	// Covers every public endpoint with a generous bucket
	publicLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		Every: time.Second / 10,
		Burst: 30,
	})

	// 5 login attempts per 15 minute window per caller. The TTL has to
	// outlive the window or an idle visitor gets a fresh bucket
	loginLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		Every: 3 * time.Minute,
		Burst: 5,
		TTL:   30 * time.Minute,
	})

	main := router.Group("/api", publicLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates an admin session token
		main.HEAD("/validate", auth, a.Validate)

		// GET /api/files		-> Public listing of all files
		main.GET("/files", a.FilesList)

		// GET /api/download/:id	-> Serves a non-expired file's bytes
		main.GET("/download/:id", a.FileDownload)
	}

	admin := main.Group("/admin")
	{
		// POST /api/admin/login	-> Trades the admin code for a session token
		admin.POST("/login", loginLimiter, middleware.BodySizeLimiter(1<<20), a.AdminLogin)

		// POST /api/admin/files	-> Uploads a new file with its metadata
		admin.POST("/files", auth, middleware.BodySizeLimiter(maxUploadSize+(1<<20)), a.FileCreate)

		// PUT /api/admin/files/:id	-> Updates a file's metadata
		admin.PUT("/files/:id", auth, middleware.BodySizeLimiter(1<<20), a.FileUpdate)

		// DELETE /api/admin/files/:id	-> Deletes a file and its bytes
		admin.DELETE("/files/:id", auth, a.FileDelete)

		// GET /api/admin/stats		-> Aggregate counts over the registry
		admin.GET("/stats", auth, a.AdminStats)
	}

	// Frontend, if one is configured
	if pub := viper.GetString("host.public_dir"); pub != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(pub))))
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
