package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	database "forstream/Database"
	"forstream/configs"
	"forstream/internal/channel"
	"forstream/internal/livestream"
	"forstream/internal/platform"
	"forstream/internal/provider"
	"forstream/internal/relay"
	"forstream/internal/security"
	"forstream/internal/user"
	utils "forstream/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	_ = godotenv.Load()

	appConfig, err := configs.LoadConfig()
	if err != nil {
		panic(err)
	}
	utils.Init(appConfig.Log.Level)
	utils.Logger.Info("Starting forstream server...")

	if err := appConfig.Validate(); err != nil {
		utils.Logger.Fatalf("Configuration validation failed: %v", err)
	}

	postgresDB, err := database.GetPostgresDB(appConfig)
	if err != nil {
		utils.Logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer postgresDB.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     appConfig.GetRedisAddr(),
		Password: appConfig.Redis.Password,
		DB:       appConfig.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		utils.Logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Provider adapters share one refresh bus; rotated tokens flow back to
	// storage through the channel service's listener.
	bus := platform.NewRefreshBus()
	youtubeProvider := provider.NewYouTube(appConfig, bus)
	facebookProvider := provider.NewFacebook(appConfig)
	facebookPageProvider := provider.NewFacebookPage(appConfig)
	twitchProvider := provider.NewTwitch(appConfig, bus)
	registry := provider.NewRegistry(
		youtubeProvider,
		facebookProvider,
		facebookPageProvider,
		twitchProvider,
		provider.NewRTMP(),
	)

	userStore := user.NewUserStore(postgresDB)
	channelStore := channel.NewChannelStore(postgresDB)
	liveStreamStore := livestream.NewLiveStreamStore(postgresDB)

	sessions := security.NewSessionManager(redisClient, appConfig)
	userService := user.NewService(userStore, appConfig)
	channelService := channel.NewService(channelStore, youtubeProvider, facebookProvider, facebookPageProvider, twitchProvider, bus, appConfig.Assets.URL)
	relayClient := relay.NewClient(appConfig.Live.APIURL)
	liveStreamService := livestream.NewService(liveStreamStore, channelStore, registry, relayClient, appConfig.Live.RTMPURL, appConfig.Providers.CallTimeout)
	channelService.SetLiveStreamDetacher(liveStreamService)

	if err := channelService.EnsureChannels(); err != nil {
		utils.Logger.Fatalf("Failed to seed channels: %v", err)
	}

	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()
	go channelService.RunCredentialRefreshListener(listenerCtx)

	userHandler := user.NewHandler(userService, sessions)
	channelHandler := channel.NewHandler(channelService)
	liveStreamHandler := livestream.NewHandler(liveStreamService)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = utils.CustomHTTPErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			utils.Logger.Infof("Incoming request: %s %s", c.Request().Method, c.Request().URL.Path)
			return next(c)
		}
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	})

	api := e.Group("/api/v1")
	api.POST("/users/sign_in/google", userHandler.SignInWithGoogle)

	authenticated := api.Group("", security.Middleware(sessions))
	authenticated.GET("/users/me", userHandler.GetMe)
	authenticated.POST("/users/sign_out", userHandler.SignOut)

	authenticated.GET("/channels", channelHandler.ListChannels)
	authenticated.GET("/channels/connected", channelHandler.ListConnectedChannels)
	authenticated.POST("/channels/youtube/connect", channelHandler.ConnectYouTubeChannel)
	authenticated.POST("/channels/facebook/connect", channelHandler.ConnectFacebookChannel)
	authenticated.GET("/channels/facebook_page/targets", channelHandler.ListFacebookPageChannelTargets)
	authenticated.POST("/channels/facebook_page/connect", channelHandler.ConnectFacebookPageChannel)
	authenticated.POST("/channels/twitch/connect", channelHandler.ConnectTwitchChannel)
	authenticated.POST("/channels/rtmp/connect", channelHandler.ConnectRtmpChannel)
	authenticated.DELETE("/channels/:identifier", channelHandler.DisconnectChannel)

	authenticated.POST("/live_streams", liveStreamHandler.CreateLiveStream)
	authenticated.GET("/live_streams", liveStreamHandler.ListLiveStreams)
	authenticated.GET("/live_streams/:id", liveStreamHandler.GetLiveStream)
	authenticated.PUT("/live_streams/:id/start", liveStreamHandler.StartLiveStream)
	authenticated.PUT("/live_streams/:id/end", liveStreamHandler.EndLiveStream)
	authenticated.PUT("/live_streams/:id/providers/:identifier/enable", liveStreamHandler.EnableProvider)
	authenticated.PUT("/live_streams/:id/providers/:identifier/disable", liveStreamHandler.DisableProvider)
	authenticated.DELETE("/live_streams/:id", liveStreamHandler.RemoveLiveStream)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := appConfig.Server.Host + ":" + strconv.Itoa(appConfig.Server.Port)
	go func() {
		utils.Logger.Infof("HTTP server listening on %s", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			utils.Logger.Errorf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("Shutdown signal received, starting graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Errorf("HTTP server shutdown error: %v", err)
	}
	utils.Logger.Info("Server shutdown complete")
}
