package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lot-auction-service/internal/adapters/broadcaster"
	"lot-auction-service/internal/adapters/db"
	"lot-auction-service/internal/adapters/httpapi"
	"lot-auction-service/internal/adapters/memory"
	"lot-auction-service/internal/adapters/mq"
	"lot-auction-service/internal/adapters/redis"
	"lot-auction-service/internal/adapters/scheduler"
	"lot-auction-service/internal/adapters/ws"
	"lot-auction-service/internal/app"
	"lot-auction-service/internal/config"
	"lot-auction-service/internal/domain/generator"
	"lot-auction-service/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Lot Auction Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var store outbound.Transactor
	if cfg.Database.IsMemory() {
		store = memory.NewStore(memory.StoreParams{Logger: log.Logger})
		log.Info().Msg("In-memory store initialized")
	} else {
		dbConn, err := db.NewConnection(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		if err := dbConn.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database schema")
		}
		store = db.NewTransactor(db.TransactorParams{Connection: dbConn, Logger: log.Logger})
		log.Info().Msg("Database connection established")
	}

	// Create change feed broadcaster
	var (
		feed        outbound.Broadcaster
		lotSchedule *scheduler.LotScheduler
	)
	if cfg.UsesRedis() {
		redisClient := redis.NewClient(cfg)
		if err := redis.PingRedis(redisClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		log.Info().Msg("Redis connection established")

		redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
			RedisClient: redisClient,
			Logger:      log.Logger,
		})
		defer redisBroadcaster.Close()
		feed = redisBroadcaster

		lotSchedule = scheduler.NewLotScheduler(scheduler.LotSchedulerParams{
			RedisClient: redisClient,
			Broadcaster: feed,
			Logger:      log.Logger,
		})
		log.Info().Msg("Redis broadcaster initialized")
	} else {
		feed = broadcaster.NewLocalBroadcaster(broadcaster.LocalBroadcasterParams{Logger: log.Logger})
		log.Info().Msg("Local broadcaster initialized")
	}

	// Create settlement publisher
	var settlements outbound.SettlementPublisher
	if cfg.AMQP.Enabled() {
		publisher, err := mq.NewSettlementPublisher(mq.SettlementPublisherParams{
			URL:      cfg.AMQP.URL,
			Exchange: cfg.AMQP.Exchange,
			Logger:   log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer publisher.Close()
		settlements = publisher
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Settlement publisher initialized")
	}

	// Create business services
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		Store:       store,
		Generator:   generator.NewSeeded(cfg.Auction.RandomSeed),
		Broadcaster: feed,
		Settlements: settlements,
		Duration:    cfg.Auction.Duration,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		Store:       store,
		Broadcaster: feed,
		Extension:   cfg.Auction.BidExtension,
		Logger:      log.Logger,
	})
	userService := app.NewUserService(app.UserServiceParams{
		Store:           store,
		Broadcaster:     feed,
		StartingBalance: cfg.Auction.StartingBalance,
		Logger:          log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Start lot scheduler
	if lotSchedule != nil {
		lotSchedule.SetChecker(auctionService)
		auctionService.SetScheduler(lotSchedule)
		bidService.SetScheduler(lotSchedule)
		lotSchedule.Start()
		log.Info().Msg("Lot scheduler started")
	}

	wsHandler := ws.NewHandler(ws.WsHandlerParams{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		},
		AuctionService: auctionService,
		BidService:     bidService,
		UserService:    userService,
		Broadcaster:    feed,
		Logger:         log.Logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.RouterParams{
		Handler: httpapi.NewHandler(httpapi.HandlerParams{
			AuctionService: auctionService,
			BidService:     bidService,
			UserService:    userService,
			Logger:         log.Logger,
		}),
		WebSocket: wsHandler.HandleWebSocket,
		Logger:    log.Logger,
	})

	server := httpapi.NewServer(httpapi.ServerParams{
		Config:  cfg,
		Handler: router,
		Logger:  log.Logger,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if lotSchedule != nil {
		lotSchedule.Stop()
		log.Info().Msg("Lot scheduler stopped")
	}

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
