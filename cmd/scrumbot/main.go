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

	_ "github.com/KangGunn/Madcamp-Week4/docs"
	"github.com/KangGunn/Madcamp-Week4/internal/chat"
	"github.com/KangGunn/Madcamp-Week4/internal/config"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
	api "github.com/KangGunn/Madcamp-Week4/internal/http"
	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
	"github.com/KangGunn/Madcamp-Week4/internal/platform/clock"
	"github.com/KangGunn/Madcamp-Week4/internal/platform/database"
	"github.com/KangGunn/Madcamp-Week4/internal/repository/filestore"
	"github.com/KangGunn/Madcamp-Week4/internal/repository/sqlstore"
	"github.com/KangGunn/Madcamp-Week4/internal/retry"
	"github.com/KangGunn/Madcamp-Week4/internal/scrumbot"
	"github.com/KangGunn/Madcamp-Week4/internal/worker"
)

// drainTimeout covers one handler's budget on top of the socket teardown.
const drainTimeout = 35 * time.Second

// @title           Scrum Bot Ops API
// @version         1.0
// @description     Read-only view of live channel votes and scrum times
// @BasePath        /
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
	notifier := chat.NewNotifier(slackAPI)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openScrumRepo(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("scrum store error: %v", err)
	}
	defer closeRepo()

	clk := clock.NewReal(cfg.Location)
	finalizer := worker.NewFinalizer(clk)
	defer finalizer.Stop()

	votes := vote.NewService(vote.NewStore(), finalizer, clk, scrumbot.NewPresenter(notifier), vote.Options{
		EnforceAllowAdd: cfg.EnforceAllowAdd,
		Logger:          logger,
	})

	reminders := worker.NewReminders(cfg.Location, notifier, logger)
	scrumSvc := scrum.NewService(repo, reminders, logger)

	restored, err := scrumSvc.Restore(ctx)
	if err != nil {
		log.Fatalf("restore scrum times: %v", err)
	}
	logger.Info("scrum times restored", "event", "scrum_restored", "count", restored)

	err = retry.Do(ctx, retry.Policy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second}, func(ctx context.Context) error {
		auth, err := slackAPI.AuthTestContext(ctx)
		if err == nil {
			logger.Info("slack auth ok", "event", "slack_auth", "bot_user_id", auth.UserID, "team", auth.Team)
		}
		return err
	})
	if err != nil {
		log.Fatalf("slack auth error: %v", err)
	}

	router := chat.NewRouter(logger)
	scrumbot.New(votes, scrumSvc, notifier, logger).Register(router)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Votes: votes,
			Scrum: scrumSvc,
			Ready: router.Connected,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go reminders.Run(ctx)

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

	logger.Info("scrumbot stopped")
}

func openScrumRepo(ctx context.Context, cfg config.Config, logger *slog.Logger) (scrum.Repository, func(), error) {
	switch cfg.ScrumStore {
	case config.StorePostgres, config.StoreSQLite:
		driver := database.DriverPostgres
		if cfg.ScrumStore == config.StoreSQLite {
			driver = database.DriverSQLite
		}
		db, err := database.Open(driver, cfg.DB_DSN)
		if err != nil {
			return nil, nil, err
		}
		repo := sqlstore.NewScrumRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
	default:
		repo, err := filestore.NewScrumRepo(cfg.ScrumFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}
