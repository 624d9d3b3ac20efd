package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"bandarlab/alphahunter"
	"bandarlab/brokers"
	"bandarlab/cache"
	"bandarlab/config"
	"bandarlab/database"
	"bandarlab/database/refdata"
	"bandarlab/feed"
	"bandarlab/synthesis"
)

// App represents the main application
type App struct {
	config     *config.Config
	db         *database.Database
	pool       *database.SQLPool
	redis      *cache.RedisClient
	classifier *brokers.Classifier
	service    *synthesis.Service
	scorer     *alphahunter.Scorer
	sweeper    *synthesis.RetentionSweeper
	feedClient *feed.Client
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

// Start starts the application
func (a *App) Start() error {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database Connection
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	if err := a.db.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 2. Raw pool for the retention sweep
	pool, err := database.NewSQLPool(database.PoolConfig{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("retention pool failed: %w", err)
	}
	a.pool = pool

	// 3. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)

	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}

	// 4. Broker reference table: seed defaults, then load the live table
	// into an immutable snapshot.
	refRepo := refdata.NewRepository(a.db.DB())
	if err := refRepo.SeedBrokerRefs(brokers.RefsFromProfiles(brokers.DefaultProfiles())); err != nil {
		return fmt.Errorf("broker seed failed: %w", err)
	}

	refs, err := refRepo.GetBrokerRefs()
	if err != nil {
		return fmt.Errorf("broker table load failed: %w", err)
	}
	a.classifier = brokers.NewClassifier(brokers.ProfilesFromRefs(refs))
	log.Printf("✅ Broker table loaded: %d brokers", len(refs))

	// 5. Synthesis service
	a.service = synthesis.NewService(a.db, a.pool, a.classifier, a.redis, synthesis.Config{
		BucketMinutes:   a.config.Analysis.BurstBucketMinutes,
		BurstMultiplier: a.config.Analysis.BurstMultiplier,
	})

	// Alpha hunter scorer over the same daily summaries. No market-cap
	// source is wired yet, so the flow impact component degrades to zero.
	a.scorer = alphahunter.NewScorer(refRepo, nil)

	// Setup WaitGroup for goroutines
	var wg sync.WaitGroup

	// 6. Retention sweeper
	a.sweeper = synthesis.NewRetentionSweeper(a.service, a.config.Analysis.RetentionGraceDays)
	go a.sweeper.Start()

	// 7. Tick feed (optional)
	if a.config.Feed.Enabled {
		a.feedClient = feed.NewClient(a.config.Feed.URL, a.config.Feed.AuthToken, a.service)
		if err := a.feedClient.Connect(); err != nil {
			return fmt.Errorf("tick feed connection failed: %w", err)
		}
		a.feedClient.StartPing(ctx, 25*time.Second)

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.feedClient.Run(ctx)
		}()
	} else {
		log.Println("ℹ️  Tick feed DISABLED")
	}

	// 8. Wait for interrupt and perform graceful shutdown
	err = a.gracefulShutdown(cancel)
	wg.Wait()
	return err
}

// Service exposes the synthesis service for embedding callers
func (a *App) Service() *synthesis.Service {
	return a.service
}

// Scorer exposes the alpha hunter scorer for embedding callers
func (a *App) Scorer() *alphahunter.Scorer {
	return a.scorer
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	// Cancel context to stop all goroutines
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if a.sweeper != nil {
			fmt.Println("🧹 Stopping retention sweeper...")
			a.sweeper.Stop()
		}

		if a.feedClient != nil {
			fmt.Println("📡 Closing tick feed connection...")
			if err := a.feedClient.Close(); err != nil {
				log.Printf("Error closing tick feed: %v", err)
			} else {
				fmt.Println("✅ Tick feed closed")
			}
		}

		if a.pool != nil {
			if err := a.pool.Close(); err != nil {
				log.Printf("Error closing retention pool: %v", err)
			} else {
				fmt.Println("✅ Retention pool closed")
			}
		}

		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}

		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
