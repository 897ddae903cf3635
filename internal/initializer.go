// Package internal wires the configuration, database pool and managers
// together and starts the API server or the mail worker.
package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"storefront-auth/internal/config"
	"storefront-auth/internal/managers"
	"storefront-auth/internal/routing"
	"storefront-auth/internal/tasks"
	"storefront-auth/internal/tokens"
)

const envFile = ".env"

// Init sets up and runs the API server. It blocks until the process is
// interrupted or the listener fails.
func Init() {
	cfg := loadConfig()

	// Connect to database
	pool := initializeDatabase(cfg)
	defer pool.Close()

	// Initialize database manager
	databaseMgr := managers.NewDatabaseManager(pool)

	// Initialize queue manager for the activation emails
	queueMgr := managers.NewQueueManager(redisOpt(cfg))
	defer func() {
		if err := queueMgr.Close(); err != nil {
			log.Warn("Error closing queue client: ", err)
		}
	}()

	// Initialize JWT manager
	jwtMgr, err := managers.NewJWTManagerFromFile(cfg.KeyPairPath)
	if err != nil {
		log.Fatal("Error initializing JWT manager: ", err)
	}

	tokenGenerator := tokens.NewActivationTokenGenerator(cfg.SecretKey, cfg.TokenBucket, cfg.TokenMaxAge)

	// Initialize router
	r := routing.InitRouter(databaseMgr, queueMgr, jwtMgr, tokenGenerator, cfg.FrontendURL)
	log.Info("Initialized router")

	// Handle interrupt signal gracefully
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)

		<-c
		log.Info("Server shutting down...")
		os.Exit(0)
	}()

	// Start server on the specified address
	log.Infof("Starting server on %s...", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatal("Error starting server: ", err)
	}
}

// InitWorker sets up and runs the queue worker that delivers activation
// emails. It blocks until the asynq server stops.
func InitWorker() {
	cfg := loadConfig()

	pool := initializeDatabase(cfg)
	defer pool.Close()

	mailMgr := managers.NewMailManager(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.Environment)

	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency:    cfg.WorkerConcurrency,
		RetryDelayFunc: tasks.RetryDelay,
		Queues: map[string]int{
			tasks.QueueDefault: 1,
		},
	})

	mux := asynq.NewServeMux()
	handler := tasks.NewHandler(pool, mailMgr)
	mux.HandleFunc(tasks.TypeActivationEmail, handler.HandleActivationEmailTask)

	log.Infof("Starting worker with concurrency %d...", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatal("Error running worker: ", err)
	}
}

func loadConfig() *config.Config {
	if err := godotenv.Load(envFile); err != nil {
		log.Info("No .env file found, using environment variables from system")
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	setLogLevel(cfg.LogLevel)
	return cfg
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func initializeDatabase(cfg *config.Config) *pgxpool.Pool {
	log.Info("Initializing database")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		log.Fatal("error configuring database: ", err)
	}

	poolConfig.MinConns = 5
	poolConfig.MaxConns = 30
	poolConfig.MaxConnIdleTime = time.Minute * 2
	poolConfig.HealthCheckPeriod = time.Minute * 1

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}
	log.Info("Connected to database")
	return pool
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "FATAL":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetReportCaller(true)

	log.SetOutput(os.Stdout)
}
