package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"key-manager/core/config"
	"key-manager/core/database"
	"key-manager/core/loader"
	"key-manager/core/logger"
	"key-manager/core/middleware/auth"
	"key-manager/core/middleware/rayid"

	"key-manager/feature/autoflex"
	"key-manager/feature/keys"
	"key-manager/feature/keys/history"
	"key-manager/feature/keys/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the key manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (Optional, movement history only)
		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, movement history disabled", zap.Error(err))
		} else {
			db = conn
			logg.Info("Connected to history database")
		}

		recorder, err := history.NewRecorder(db, logg)
		if err != nil {
			logg.Fatal("Failed to initialize movement history", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 5. Wire the key management feature
		client := autoflex.NewClient(cfg.Autoflex, logg)
		feature := keys.NewFeature(registry.New(), client, recorder, logg)

		mgr := loader.NewManager(logg)
		mgr.Register(feature)

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

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 6. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Background Sync
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if cfg.Keys.AutoSync {
			interval := time.Duration(cfg.Keys.SyncIntervalSeconds) * time.Second
			feature.Service().StartAutoSync(ctx, interval)
			logg.Info("Auto-sync enabled", zap.Duration("interval", interval))
		}

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
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
