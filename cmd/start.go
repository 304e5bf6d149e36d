package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-manager/core/credentials"
	"inventory-manager/core/database"
	"inventory-manager/core/loader"
	"inventory-manager/core/logger"
	"inventory-manager/core/mailer"
	"inventory-manager/core/middleware/auth"
	"inventory-manager/core/middleware/rayid"
	"inventory-manager/core/storage"
	"inventory-manager/feature/reservation"
	"inventory-manager/feature/stock"
	syncfeature "inventory-manager/feature/sync"
	"inventory-manager/feature/sync/gateway"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory manager server",
	Long:  `Starts the HTTP server, the sync scheduler, and all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logg, db, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer logg.Sync()

		lock := database.SupportsRowLocks(db)
		if !lock {
			logg.Warn("Dialect does not honor row locks; admission races are only safe single-node")
		}

		// Optional collaborators: credentials gate the reserving user, the
		// notifier mails on admission, the archiver copies snapshots aside.
		creds := credentials.NewRepository(db, 0)

		var notifier mailer.Notifier
		if cfg.Mail.Enabled {
			notifier = mailer.NewSMTPNotifier(cfg.Mail)
		}

		var archiver *syncfeature.Archiver
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Warn("Snapshot archive unavailable", zap.Error(err))
			} else {
				archiver = syncfeature.NewArchiver(store, cfg.Storage.Bucket)
			}
		}

		// Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Initialize Feature Loader
		mgr := loader.NewManager()

		reservationFeature := reservation.NewFeature(db, logg, creds, notifier, lock)
		extractor := gateway.NewClient(cfg.Gateway)
		syncFeature := syncfeature.NewFeature(
			db, extractor, reservationFeature.Service().Allocator(), archiver, logg,
			cfg.Gateway.URL != "",
		)

		mgr.Register(reservationFeature)
		mgr.Register(stock.NewFeature(db, reservationFeature.Service(), logg))
		mgr.Register(syncFeature)

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Health (Public)
		app.Get("/health", func(c *fiber.Ctx) error {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Context())
			}
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "degraded", "error": err.Error(),
				})
			}
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Sync Scheduler
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if syncFeature.IsEnabled() {
			if cfg.Sync.RunOnStart {
				go func() {
					_, err := syncFeature.Pipeline().RunOnce(ctx)
					if err != nil && !errors.Is(err, syncfeature.ErrNothingToLoad) {
						logg.Error("Initial sync cycle failed", zap.Error(err))
					}
				}()
			}
			scheduler := syncfeature.NewScheduler(
				syncFeature.Pipeline(),
				time.Duration(cfg.Sync.IntervalMinutes)*time.Minute,
				logg,
			)
			go scheduler.Run(ctx)
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
