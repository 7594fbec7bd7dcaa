package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/config"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/logging"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/maintenance"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port        int
	bind        string
	allowSubnet string
	dbPath      string
	itemsPath   string
	verbosity   int
	isDev       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gpa-adaptiv",
		Short: "GPA Adaptiv - adaptives Lern- und Diagnostik-Backend",
		Long:  `GPA Adaptiv serves adaptive diagnostics and practice items for the Hamburg GPA curriculum (Lernfelder LF1-LF10).`,
		RunE:  run,
	}

	// Flags
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "./gpa-adaptiv.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().StringVarP(&itemsPath, "items", "i", "", "External items JSON file, watched for changes (or set ITEMS_PATH env var)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.Flags().BoolVar(&isDev, "dev", false, "Development mode (relaxed cookie security)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gpa-adaptiv %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Check for PORT env var if flag not set
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}

	// Check for DB_PATH env var if using default
	if dbPath == "./gpa-adaptiv.db" {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}

	if itemsPath == "" {
		itemsPath = os.Getenv("ITEMS_PATH")
	}

	// Validate port
	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}

	// Validate bind address if provided
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	// Validate and parse allow-subnet if provided
	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	// Console logging until the database-backed settings are available
	setupConsoleLogging(verbosity)

	// Warn if binding to all interfaces without an allow list
	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Msg("Starting GPA Adaptiv")

	// Initialize database
	db, err := database.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	if err := db.InitializeDefaults(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize default settings")
	}

	// Settings-backed logging with file rotation next to the database.
	// The verbosity flags win over the stored level.
	loader := config.NewLoader(db)
	logLevel := loader.String("log.level", "info")
	switch verbosity {
	case 0:
	case 1:
		logLevel = "debug"
	default:
		logLevel = "trace"
	}
	logging.Apply(logLevel, loader, logging.FilePathForDB(dbPath))

	// Write the embedded seed bank on first run. Stored rows stay put on
	// later starts so item ids referenced by attempts remain valid.
	seedItems, err := bank.SeedItems()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load embedded seed items")
	}
	seeded, err := db.SeedItemsIfEmpty(seedItems)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to store seed items")
	}
	if seeded {
		log.Info().Int("items", len(seedItems)).Msg("Seed bank written to database")
	}

	itemBank := bank.New()

	// Create web server with bind address and allowed subnet
	server := web.NewServer(db, itemBank, port, bind, allowedNet, isDev)
	server.Handlers().SetVersionInfo(version, commit, date)

	if err := server.Handlers().ReloadBank(); err != nil {
		log.Fatal().Err(err).Msg("Failed to build item bank")
	}
	log.Info().Int("items", itemBank.Count()).Msg("Item bank ready")

	// Watch the external items file if configured
	if itemsPath != "" {
		watcher, err := bank.NewWatcher(itemsPath, func(items []bank.Item) {
			if err := db.ReplaceItemsBySource(database.ItemSourceFile, items); err != nil {
				log.Error().Err(err).Msg("Failed to store file items")
				return
			}
			if err := server.Handlers().ReloadBank(); err != nil {
				log.Error().Err(err).Msg("Failed to reload bank from file items")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create items file watcher")
		}
		if err := watcher.Start(); err != nil {
			log.Fatal().Err(err).Str("path", itemsPath).Msg("Failed to watch items file")
		}
		defer watcher.Stop()
	}

	// Scheduled housekeeping
	scheduler := maintenance.NewScheduler(db, loader, server.Metrics().MaintenanceRun)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start maintenance scheduler")
	}
	defer scheduler.Stop()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("GPA Adaptiv stopped")
	return nil
}

func setupConsoleLogging(verbosity int) {
	// Pretty console output
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}

	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default: // 2+
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
