// Nibe Bridge - heat pump accessory bridge
//
// This is the main entry point for the bridge. It polls Nibe Uplink for
// system snapshots, reconciles them against a persistent entity registry,
// and publishes the resulting accessories over MQTT with optional
// parameter history in InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/vingarzan/homebridge-nibe/migrations"

	bridgemqtt "github.com/vingarzan/homebridge-nibe/internal/bridges/mqtt"
	"github.com/vingarzan/homebridge-nibe/internal/entity"
	"github.com/vingarzan/homebridge-nibe/internal/handler"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/config"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/database"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/influxdb"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/logging"
	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/mqtt"
	"github.com/vingarzan/homebridge-nibe/internal/reconcile"
	"github.com/vingarzan/homebridge-nibe/internal/translation"
	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Nibe bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise entity registry
	entityRepo := entity.NewSQLiteRepository(db.DB)
	entityRegistry := entity.NewRegistry(entityRepo)
	entityRegistry.SetLogger(log)

	if refreshErr := entityRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading entity registry: %w", refreshErr)
	}
	log.Info("entity registry initialised", "entities", entityRegistry.Count())

	// Load the translation table for parameter labels
	translations, err := translation.Load(cfg.Locale.Dir, cfg.Locale.Code)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}
	log.Info("translations loaded", "locale", translations.Locale())

	// Set up category handlers
	handlers := handler.NewRegistry(handler.Deps{
		Translator: translations,
		Logger:     log,
	})
	if err := handler.RegisterBuiltins(handlers); err != nil {
		return fmt.Errorf("registering handlers: %w", err)
	}
	log.Info("handlers registered", "tags", handlers.Tags())

	// Reconciliation engine and coordinator
	engine := reconcile.NewEngine(entityRegistry, handlers)
	engine.SetLogger(log)
	coordinator := reconcile.NewCoordinator(engine)
	coordinator.SetLogger(log)

	// Nibe Uplink client with persisted OAuth2 session
	sessionStore := uplink.NewSessionStore(cfg.Uplink.SessionFile)
	uplinkClient, err := uplink.NewClient(ctx, cfg.Uplink, sessionStore)
	if err != nil {
		return fmt.Errorf("creating Nibe Uplink client: %w", err)
	}
	log.Info("Nibe Uplink client ready", "system_id", cfg.Uplink.SystemID)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Publish entities over MQTT and mirror state changes
		owner := bridgemqtt.NewOwner(mqttClient)
		owner.SetLogger(log)
		engine.AddOwner(owner)
		engine.AddRecorder(owner)

		// A refresh request triggers an immediate out-of-schedule fetch
		topics := mqtt.Topics{}
		// #nosec G115 -- QoS validated to 0..2 by config
		if subErr := mqttClient.Subscribe(topics.SystemRefresh(), byte(cfg.MQTT.QoS), func(_ string, _ []byte) error {
			log.Info("refresh requested over MQTT")
			go func() {
				snap, fetchErr := uplinkClient.FetchSnapshot(ctx, cfg.Uplink.SystemID)
				if fetchErr != nil {
					coordinator.SubmitError(fetchErr)
					return
				}
				coordinator.Submit(snap)
			}()
			return nil
		}); subErr != nil {
			return fmt.Errorf("subscribing to refresh topic: %w", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		// Record parameter history for every state change
		recorder := influxdb.NewRecorder(influxClient)
		recorder.SetLogger(log)
		engine.AddRecorder(recorder)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Drain snapshots into the engine
	go coordinator.Run(ctx)

	// Start polling Nibe Uplink
	fetcher := uplink.NewFetcher(uplinkClient, cfg.Uplink.SystemID, cfg.GetPollInterval())
	fetcher.SetLogger(log)
	fetcher.SetOnData(coordinator.Submit)
	fetcher.SetOnError(coordinator.SubmitError)

	if err := fetcher.Start(ctx); err != nil {
		return fmt.Errorf("starting snapshot fetcher: %w", err)
	}
	defer func() {
		log.Info("stopping snapshot fetcher")
		fetcher.Stop()
	}()
	log.Info("polling started", "interval", cfg.GetPollInterval())

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Snapshot fetcher
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Nibe bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses NIBE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NIBE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when the respective feature
// is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
