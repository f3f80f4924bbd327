package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/api"
	"github.com/yzeman/yzemanbot-mini-app/internal/bot"
	"github.com/yzeman/yzemanbot-mini-app/internal/middleware"
	"github.com/yzeman/yzemanbot-mini-app/internal/notify"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/auth"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Bootstrap(ctx); err != nil {
		zapLogger.Fatal("Failed to bootstrap database", zap.Error(err))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		zapLogger.Fatal("Failed to initialize telegram bot", zap.Error(err))
	}
	botAPI.Debug = cfg.Telegram.Debug

	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.AdminChatID)
	hub := notify.NewHub()

	userService := service.NewUserService(repo, repo.Tiers(), notifier)
	rewardService := service.NewRewardService(repo, hub)
	referralService := service.NewReferralService(repo, notifier, hub, cfg.Rewards.JoinBonusPoints)
	bonusService := service.NewBonusService(repo, hub)
	withdrawalService := service.NewWithdrawalService(repo, notifier, hub)

	sched, err := rewardService.StartDailyReset(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to start daily reset job", zap.Error(err))
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			zapLogger.Warn("Failed to shut down scheduler", zap.Error(err))
		}
	}()

	telegramAuth := auth.NewTelegramAuth(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	authz := middleware.NewAuthorization(userService)

	tgBot := bot.New(botAPI, userService, referralService, repo.Tiers(), cfg.Telegram.BotUsername, cfg.Telegram.WebAppURL)
	go tgBot.Start(ctx)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/healthz", func(c *gin.Context) {
		if err := repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, referralService, telegramAuth)
	api.NewTaskRoutes(a, rewardService, telegramAuth)
	api.NewReferralRoutes(a, referralService, telegramAuth)
	api.NewBonusRoutes(a, bonusService, telegramAuth)
	api.NewWithdrawalRoutes(a, withdrawalService, telegramAuth, authz)
	api.NewMessageRoutes(a, userService, telegramAuth)
	api.NewEventRoutes(a, hub, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	if err := serve(ctx, srv); err != nil {
		zapLogger.Fatal("Failed to serve", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}

// serve runs the server until it fails or ctx is cancelled. On
// cancellation in-flight requests get shutdownTimeout to finish before
// the listener is torn down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
