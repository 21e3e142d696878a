package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/game-manager/configs"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/nats"
	"github.com/avvvet/game-manager/internal/socketsvc/broker"
	"github.com/avvvet/game-manager/internal/socketsvc/handlers"
	"github.com/avvvet/game-manager/internal/socketsvc/routes"
	"github.com/avvvet/game-manager/internal/socketsvc/ws"
)

const SERVICE_NAME = "catalog_feed"

func main() {
	config.LoadEnv(SERVICE_NAME)

	instanceId := config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_"+instanceId, getenv("LOG_LEVEL", "info"), os.Getenv("LOG_TO_FILE") == "true")

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	rateLimit, err := strconv.Atoi(getenv("RATE_LIMIT", "100"))
	if err != nil || rateLimit <= 0 {
		log.Fatalf("Invalid RATE_LIMIT value: %q", os.Getenv("RATE_LIMIT"))
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	// Connect to NATS
	n, err := nats.Connect(getenv("NATS_URL", "nats://localhost:4222"), os.Getenv("NATS_TOKEN"), SERVICE_NAME+"_"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(origins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	s := ws.NewWs()
	h := handlers.NewHandler(s, identity.NewResolver(jwtKey), origins)
	routes.SetRoutes(r, h)

	// relay catalog events from the game service to the sockets
	b := broker.NewBroker(n.Conn, s.Dispatch)
	topic := getenv("CATALOG_EVENTS_TOPIC", "catalog.service")
	sub, err := b.Subscribe(topic)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", topic, err)
	}

	server := &http.Server{
		Addr:              ":" + getenv("SOCKET_SERVICE_PORT", "8081"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second, // feed sockets stay open, so no ReadTimeout
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sub.Unsubscribe(); err != nil {
		log.Warnf("unsubscribe %s: %s", topic, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
