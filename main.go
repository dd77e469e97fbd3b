package main

import (
	"context"
	"log"
	"time"

	"account-service/cmd"
	"account-service/internal/data/repository"
	"account-service/internal/wire"
	"account-service/pkg/database"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("db_driver", config.Database.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to the configured store
	repos, closeStore, err := openRepository(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeStore()

	// Wire all dependencies
	app := wire.Wiring(repos, config, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}

func openRepository(config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch config.Database.Driver {
	case utils.DriverMongo:
		m, err := database.InitMongo(config.Mongo)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("MongoDB connected", zap.String("database", config.Mongo.Database))

		repos, err := repository.NewMongoRepository(ctx, m.DB, logger)
		if err != nil {
			m.Close()
			return nil, nil, err
		}
		return repos, m.Close, nil

	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connected successfully")

		if config.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("Migrations applied")
		}
		return repository.NewRepository(db, logger), db.Close, nil
	}
}
