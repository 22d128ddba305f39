package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/veyronhq/reqforge/config"
	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	"github.com/veyronhq/reqforge/internal/jobs"
	"github.com/veyronhq/reqforge/internal/rest"
	"github.com/veyronhq/reqforge/internal/services"
	"github.com/veyronhq/reqforge/internal/services/auth"
	"github.com/veyronhq/reqforge/internal/services/configservice"
	"github.com/veyronhq/reqforge/internal/services/email"
	"github.com/veyronhq/reqforge/internal/services/notifications"
	permsvc "github.com/veyronhq/reqforge/internal/services/permissions"
	"github.com/veyronhq/reqforge/internal/services/sqlite"
	"github.com/veyronhq/reqforge/internal/websocket"
	"github.com/veyronhq/reqforge/pkg/structures"
)

var (
	Version   = "dev"
	Timestamp = "unknown"
)

func main() {
	Timestamp := time.Now().Format(time.RFC3339)

	if v := os.Getenv("VERSION"); v != "" {
		Version = v
	}

	// Set the log level based on the version
	var logLevel slog.Level
	if Version == "dev" {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if Version == "dev" {
		slog.Info("Starting in development mode", "version", Version, "timestamp", Timestamp)
	} else {
		slog.Info("Starting in production mode", "version", Version, "timestamp", Timestamp)
	}

	bootstrap, err := config.NewBootstrap(Version)
	if err != nil {
		slog.Error("Failed to load bootstrap configuration", "error", err)
		os.Exit(1)
	}

	// Create global context with all services
	gctx, cancel := global.WithCancel(global.New(
		context.Background(),
		bootstrap,
		Version,
		Timestamp,
	))

	{
		// Initialize SQLite first
		slog.Info("sqlite", "status", "starting")
		gctx.Crate().Sqlite, err = sqlite.Setup(gctx, Version, sqlite.SetupOptions{
			Path: gctx.Bootstrap().SQLite.Path,
		})
		if err != nil {
			slog.Error("Failed to initialize SQLite service", "error", err)
			os.Exit(1)
		}
		slog.Info("setup service", "service", "sqlite")
	}

	{
		// Initialize config service
		slog.Info("config", "status", "starting")
		gctx.Crate().Config = configservice.New(gctx.Crate().Sqlite.Query())
		if err := gctx.Crate().Config.Load(context.Background()); err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		slog.Info("setup service", "service", "config")
	}

	{
		// Initialize authentication service
		gctx.Crate().AuthService = auth.New(
			gctx.Bootstrap().Credentials.JwtSecret,
			"localhost",
			true,
		)
		slog.Info("setup service", "service", "auth")
	}

	{
		// Notification service: in-app rows plus websocket broadcast
		gctx.Crate().NotificationService = notifications.NewService(gctx.Crate().Sqlite.Query())
		gctx.Crate().NotificationService.SetBroadcastFunc(func(userID string, op structures.Opcode, data interface{}) {
			websocket.SendToUser(userID, op, data)
		})

		// Outbound mail rides along when the operator configured SMTP.
		if raw, err := gctx.Crate().Sqlite.Query().GetSetting(gctx, structures.SettingEmailSettings.String()); err == nil && raw != "" {
			var emailSettings structures.EmailSettings
			if err := json.Unmarshal([]byte(raw), &emailSettings); err != nil {
				slog.Warn("Malformed email settings; outbound mail disabled", "error", err)
			} else if emailSettings.Enabled {
				gctx.Crate().NotificationService.SetMailer(email.NewService(&emailSettings))
				slog.Info("setup service", "service", "email")
			}
		}
		slog.Info("setup service", "service", "notifications")
	}

	{
		// Heal the pending-request counters before any quota check trusts
		// them: the counts live outside the requests table and may have
		// drifted across an unclean shutdown.
		engine := permsvc.NewEngine(gctx.Crate().Sqlite.Query(), gctx.Crate().Config)
		if err := engine.SyncRequestCounts(gctx); err != nil {
			slog.Error("Failed to sync request counts", "error", err)
		}

		// Seed the role-default rows so every known flag has a toggle.
		defaults := services.NewDynamicDefaultPermissionsService(gctx.Crate().Sqlite.Query())
		if err := defaults.EnsureAllPermissionsExist(gctx); err != nil {
			slog.Error("Failed to seed default permissions", "error", err)
		}
	}

	// Initialize integration services
	ints := integrations.New(gctx)
	slog.Info("setup service", "service", "integrations")

	// Job scheduler: registers the full roster, overlays persisted
	// schedules, and coalesces overdue runs into a single catch-up.
	jobManager := jobs.NewManager(gctx)
	if err := jobs.RegisterAll(jobManager, gctx, ints); err != nil {
		slog.Error("Failed to register jobs", "error", err)
		os.Exit(1)
	}
	if err := jobManager.Start(gctx); err != nil {
		slog.Error("Failed to start job manager", "error", err)
		os.Exit(1)
	}
	slog.Info("setup service", "service", "jobs")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	wg := sync.WaitGroup{}

	go func() {
		<-interrupt
		cancel()

		go func() {
			select {
			case <-time.After(time.Minute):
			case <-interrupt:
			}
			slog.Warn("Force shutdown after timeout")
		}()

		slog.Warn("Shutting down...")

		// The scheduler refuses new work once shutdown begins and waits
		// out in-flight runs up to this deadline.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := jobManager.Stop(stopCtx); err != nil {
			slog.Error("Error stopping job manager", "error", err)
		}
		stopCancel()

		wg.Wait()

		websocket.CloseAllConnections()

		if gctx.Crate() != nil && gctx.Crate().Sqlite != nil {
			if err := gctx.Crate().Sqlite.Close(); err != nil {
				slog.Error("Error closing sqlite connection", "error", err)
			}
		}

		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		slog.Info("rest api", "status", "starting")
		if err := rest.New(gctx, ints, jobManager); err != nil {
			slog.Error("Failed to start rest api", "error", err)
			os.Exit(1)
		}
		slog.Info("rest api", "status", "initialized")
	}()

	<-done
	slog.Info("Shutdown complete")
	os.Exit(0)
}
