package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KangGunn/Madcamp-Week4/internal/chat"
	"github.com/KangGunn/Madcamp-Week4/internal/config"
	"github.com/KangGunn/Madcamp-Week4/internal/githubbot"
	api "github.com/KangGunn/Madcamp-Week4/internal/http"
	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
	"github.com/KangGunn/Madcamp-Week4/internal/retry"
)

// drainTimeout covers one handler's budget on top of the socket teardown.
const drainTimeout = 35 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	metrics.Register()

	slackAPI, socket, err := chat.NewClient(chat.ClientConfig{
		BotToken: cfg.BotToken,
		AppToken: cfg.AppToken,
		Debug:    cfg.SlackDebug,
	})
	if err != nil {
		log.Fatalf("slack client error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot := githubbot.New(chat.NewNotifier(slackAPI), githubbot.Options{
		GreetMessages: cfg.GreetMessages,
		Logger:        logger,
	})

	err = retry.Do(ctx, retry.Policy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second}, func(ctx context.Context) error {
		auth, err := slackAPI.AuthTestContext(ctx)
		if err == nil {
			bot.SetBotUserID(auth.UserID)
		}
		return err
	})
	if err != nil {
		log.Fatalf("slack auth error: %v", err)
	}

	router := chat.NewRouter(logger)
	bot.Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.Deps{Ready: router.Connected}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- router.Run(ctx, socket)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	socketStopped := false
	select {
	case <-stop:
	case err := <-socketDone:
		socketStopped = true
		if err != nil {
			logger.Error("socket mode stopped", "event", "socket_mode_stopped", "error", err.Error())
		}
	}
	logger.Info("shutting down...")

	cancel()

	if !socketStopped {
		if ok, _ := chat.AwaitRun(socketDone, drainTimeout); !ok {
			logger.Warn("slack handlers still running at shutdown", "event", "shutdown_drain_timeout")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	logger.Info("githubbot stopped")
}
