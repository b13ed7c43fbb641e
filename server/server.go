package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"siar-server/auth"
	"siar-server/cache"
	"siar-server/confs"
	"siar-server/handlers"
	httpHandler "siar-server/handlers/http"
	"siar-server/logs"
	"siar-server/repositories"
	"siar-server/services"
	"siar-server/usecases"
	"siar-server/weather"
	"siar-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// cacheReporter is implemented by lookups backed by a TTL cache.
type cacheReporter interface {
	CacheStats() map[string]interface{}
	Purge() int
}

type Server struct {
	app     *gin.Engine
	cfg     *confs.Config
	store   repositories.Store
	sweeper *services.TimeoutSweeper
}

func NewServer(cfg *confs.Config, store repositories.Store) *Server {
	provider := weather.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherTimeout)
	gate := weather.NewGate(provider, cache.NewTTLCache[weather.Report](cfg.WeatherCacheTTL))
	return newServer(cfg, store, gate)
}

func newServer(cfg *confs.Config, store repositories.Store, lookup usecases.WeatherLookup) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		app:   gin.New(),
		cfg:   cfg,
		store: store,
	}
	s.app.Use(gin.Recovery(), httpHandler.RequestLogger())

	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Device-Key", "X-Request-ID"}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	cached, _ := lookup.(cacheReporter)
	s.app.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "OK"}
		if cached != nil {
			if stats := cached.CacheStats(); stats != nil {
				resp["weather_cache"] = stats
			}
		}
		c.JSON(http.StatusOK, resp)
	})
	s.app.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	manager := ws.NewManager()

	// Initialize use cases
	authUseCase := usecases.NewAuthUseCase(store, tokens)
	deviceUseCase := usecases.NewDeviceUseCase(store)
	livenessUseCase := usecases.NewLivenessUseCase(store, manager, cfg.HeartbeatTimeout)
	resolverUseCase := usecases.NewResolverUseCase(store, lookup)
	irrigationUseCase := usecases.NewIrrigationUseCase(store, lookup)
	consumptionUseCase := usecases.NewConsumptionUseCase(store, cfg.FlowRateLPS, cfg.Location())
	dashboardUseCase := usecases.NewDashboardUseCase(store, livenessUseCase, lookup)

	var purgers []services.Purger
	if cached != nil {
		purgers = append(purgers, cached)
	}
	s.sweeper = services.NewTimeoutSweeper(livenessUseCase, cfg.SweepInterval, purgers...)

	// Initialize handlers
	loginHandler := httpHandler.NewLoginHandler(authUseCase)
	deviceHandler := httpHandler.NewDeviceHandler(deviceUseCase, livenessUseCase, dashboardUseCase)
	deviceAPIHandler := httpHandler.NewDeviceAPIHandler(livenessUseCase, resolverUseCase, irrigationUseCase)
	irrigationHandler := httpHandler.NewIrrigationHandler(irrigationUseCase, resolverUseCase, consumptionUseCase)
	wsHandler := handlers.NewWSHandler(manager, dashboardUseCase)

	// Device-facing routes, authenticated by device_key
	device := s.app.Group("/api")
	{
		device.GET("/configuracion", deviceAPIHandler.GetConfiguration)
		device.POST("/lectura", deviceAPIHandler.PostReading)
		device.POST("/device/status", deviceAPIHandler.PostStatus)
		device.POST("/log_riego", deviceAPIHandler.PostIrrigationLog)
	}

	api := s.app.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", loginHandler.Register)
			authRoutes.POST("/login", loginHandler.Login)
		}

		user := api.Group("", httpHandler.RequireUser(tokens))
		user.GET("/me", loginHandler.Me)
		user.GET("/weather", deviceHandler.GetWeather)
		user.GET("/status", deviceHandler.GetOverview)
		user.GET("/ws", wsHandler.HandleDashboardWS)
		user.GET("/ws/connections", wsHandler.GetConnections)

		devices := user.Group("/devices")
		{
			devices.POST("", deviceHandler.CreateDevice)
			devices.GET("", deviceHandler.GetAllDevices)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.GET("/:id/status", deviceHandler.GetStatus)
			devices.POST("/:id/manual-status", deviceHandler.SetManualStatus)
			devices.POST("/:id/auto-mode", irrigationHandler.SetAutoMode)
			devices.POST("/:id/profile", irrigationHandler.ApplyProfile)
			devices.POST("/:id/schedule", irrigationHandler.SaveSchedule)
			devices.GET("/:id/schedule", irrigationHandler.GetSchedule)
			devices.GET("/:id/configuration", irrigationHandler.GetConfiguration)
			devices.GET("/:id/readings/latest", irrigationHandler.GetLatestReading)
			devices.GET("/:id/events", irrigationHandler.GetEvents)
			devices.GET("/:id/consumption", irrigationHandler.GetConsumption)
			devices.GET("/:id/consumption/weekly", irrigationHandler.GetWeeklyConsumption)
		}

		profiles := user.Group("/profiles")
		{
			profiles.POST("", irrigationHandler.CreateProfile)
			profiles.GET("", irrigationHandler.GetProfiles)
			profiles.GET("/:id", irrigationHandler.GetProfile)
			profiles.PUT("/:id", irrigationHandler.UpdateProfile)
			profiles.DELETE("/:id", irrigationHandler.DeleteProfile)
		}
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.app }

// Start serves until ctx is cancelled, then drains for up to 10s.
func (s *Server) Start(ctx context.Context) error {
	s.sweeper.Start(ctx)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logs.Logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logs.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
