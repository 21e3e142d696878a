package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/game-manager/configs"
	mongodb "github.com/avvvet/game-manager/internal/db"
	"github.com/avvvet/game-manager/internal/comm"
	"github.com/avvvet/game-manager/internal/gamesvc/broker"
	svcconfig "github.com/avvvet/game-manager/internal/gamesvc/config"
	"github.com/avvvet/game-manager/internal/gamesvc/db"
	handlers "github.com/avvvet/game-manager/internal/gamesvc/handlers"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/registry"
	"github.com/avvvet/game-manager/internal/gamesvc/service"
	"github.com/avvvet/game-manager/internal/gamesvc/store"
	nats "github.com/avvvet/game-manager/internal/nats"
)

const SERVICE_NAME = "game_manager"

func main() {
	config.LoadEnv(SERVICE_NAME)

	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	instanceId := config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_"+instanceId, cfg.LogLevel, cfg.LogToFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s catalog: %v", cfg.CatalogDriver, err)
	}
	defer closeCatalog()
	log.Infof("%s catalog ready", cfg.CatalogDriver)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled() {
		n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"_"+instanceId)
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn, cfg.EventsTopic, instanceId)
		sub, err := b.SubscribeOrphans(func(e comm.CatalogEvent) {
			log.WithFields(log.Fields{"game_id": e.GameID, "instance": e.InstanceID}).
				Warn("orphaned game reported, manual cleanup required")
		})
		if err != nil {
			log.Fatalf("Error: unable to subscribe to %s %v", cfg.EventsTopic, err)
		}
		defer sub.Unsubscribe()
		events = b
	} else {
		log.Info("catalog events disabled")
	}

	gameService := service.NewGameService(
		catalog,
		registry.NewClient(cfg.RegistryURL, cfg.RegistryTimeout),
		events,
		cfg.Classification,
	)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(gameService, identity.NewResolver(cfg.JWTSecret), instanceId)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// openCatalog connects the configured catalog backend and returns a function
// that releases it.
func openCatalog(ctx context.Context, cfg svcconfig.Config) (service.GameCatalog, func(), error) {
	switch cfg.CatalogDriver {
	case svcconfig.DriverMongo:
		database, err := mongodb.ConnectToDB(ctx, cfg.MongoURI, cfg.ConnectWait)
		if err != nil {
			return nil, nil, err
		}
		if err := mongodb.EnsureGameIndexes(ctx, database, store.GamesCollection); err != nil {
			_ = mongodb.Disconnect(context.Background(), database)
			return nil, nil, err
		}
		return store.NewMongoGameStore(database), func() {
			if err := mongodb.Disconnect(context.Background(), database); err != nil {
				log.Warnf("mongodb disconnect: %s", err)
			}
		}, nil

	case svcconfig.DriverMemory:
		log.Warn("memory catalog selected, games are lost on restart")
		return store.NewMemoryGameStore(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DBUrl); err != nil {
			return nil, nil, err
		}
	}
	dbpool, err := db.Connect(ctx, cfg.DBUrl, cfg.ConnectWait)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("pg connection established successfully")
	return store.NewGameStore(dbpool), db.ClosePool, nil
}
