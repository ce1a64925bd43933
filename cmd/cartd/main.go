// cartd is the reference cart service: the REST backend the storefront's
// cart synchronizer talks to.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/solekta/cartsync/internal/server/cache"
	"github.com/solekta/cartsync/internal/server/httpapi"
	"github.com/solekta/cartsync/internal/server/poller"
	"github.com/solekta/cartsync/internal/server/repository"
	"github.com/solekta/cartsync/internal/server/service"
)

type config struct {
	httpPort        string
	mongoURI        string
	mongoDBName     string
	redisAddr       string
	redisPassword   string
	jwtSecret       string
	kafkaBrokers    []string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

func loadConfig() config {
	cfg := config{
		httpPort:        getEnv("HTTP_PORT", "8081"),
		mongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		mongoDBName:     getEnv("MONGO_DB_NAME", "cartdb"),
		redisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		redisPassword:   getEnv("REDIS_PASSWORD", ""),
		jwtSecret:       getEnv("JWT_SECRET", ""),
		requestTimeout:  30 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.kafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := loadConfig()
	if cfg.jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.mongoURI, cfg.mongoDBName)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("uri", cfg.mongoURI))

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}
	repo := repository.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.redisAddr))

	cartCache := cache.NewRedisCache(redisClient)
	cartService := service.NewCartService(repo, cartCache, log)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.kafkaBrokers) > 0 {
		p := poller.New(repo, cartCache, log, cfg.kafkaBrokers...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Info("checkout poller started", zap.Strings("brokers", cfg.kafkaBrokers))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.httpPort,
		Handler:      httpapi.NewRouter(cartService, []byte(cfg.jwtSecret), cfg.requestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("cart service listening", zap.String("port", cfg.httpPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down cart service")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		log.Warn("mongo disconnect failed", zap.Error(err))
	}
	log.Info("cart service stopped")
}
