/**
 * @description
 * Main entry point for the billing API. It loads configuration, connects to
 * PostgreSQL, Redis and RabbitMQ, wires the billing, analytics and rotation
 * services, and serves the HTTP API until a termination signal arrives.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/api"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/app"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/config"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/ratelimit"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/store"
	rmrabbit "github.com/Rahim01baba/GEST-AERO-sub001/pkg/rabbitmq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const importEventTimeout = 2 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; using environment\"")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	// Money leaves the API as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	log.Printf("level=info component=bootstrap msg=\"starting billing api\" port=%s", cfg.ServerPort)

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	limiter := newLimiter(rootCtx, cfg)

	var publisher rmrabbit.Publisher
	producer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		publisher = &rmrabbit.EventProducerFallback{}
	} else {
		publisher = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}
	defer publisher.Close()

	repository := store.NewRepository(dbpool)

	billingService := app.NewBillingService(repository, limiter, publisher, cfg.EventsExchange, cfg.BillingMaxMovements, logger)
	analyticsService := app.NewAnalyticsService(repository)
	rotationService := app.NewRotationService(repository, publisher, cfg.EventsExchange, cfg.RotationMaxGap(), logger)

	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer unavailable; import-triggered pairing disabled\" err=%v", err)
	} else {
		defer rabbitConsumer.Close()
		bindings := map[string]rmrabbit.Handler{
			app.RoutingKeyMovementsImported: app.MovementsImportedHandler(rotationService, importEventTimeout, logger),
		}
		if err := rabbitConsumer.ConsumeWithBindings(cfg.EventsExchange, cfg.MovementImportQueue, bindings); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"movement import consumer start failed\" err=%v", err)
		}
	}

	handler := api.NewHandler(billingService, analyticsService, rotationService)
	auth := api.JWTAuthMiddleware(api.AuthConfig{
		JWKSURL:  cfg.AuthJWKSURL,
		Audience: cfg.AuthAudience,
		Issuer:   cfg.AuthIssuer,
	})
	router := api.NewRouter(handler, auth, cfg.InternalAPIKey)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

// newLimiter prefers the shared Redis counter and falls back to a
// process-local limiter when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg config.Config) ratelimit.Admitter {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisOptions, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; using in-memory rate limiter\" err=%v", err)
		} else {
			client := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			defer cancelPing()
			if err := client.Ping(pingCtx).Err(); err != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory rate limiter\" err=%v", err)
				_ = client.Close()
			} else {
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
				go func() {
					<-ctx.Done()
					_ = client.Close()
				}()
				return ratelimit.NewRedisLimiter(client, cfg.RedisRateLimitPrefix, cfg.BillingRateLimitMax, cfg.RateLimitWindow())
			}
		}
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.BillingRateLimitMax, cfg.RateLimitWindow())
	go limiter.Run(ctx)
	return limiter
}
