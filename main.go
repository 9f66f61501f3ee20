package main

import (
	"argo-gateway/core"
	"argo-gateway/envelope"
	"argo-gateway/handlers/api/auth"
	"argo-gateway/handlers/api/chat"
	"argo-gateway/handlers/api/proxy"
	"argo-gateway/handlers/api/upload"
	"argo-gateway/handlers/websocket"
	gatewaymiddleware "argo-gateway/middleware"
	"argo-gateway/mlservice"
	"argo-gateway/stores"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(blobs core.BlobStore, ledger core.UploadLedger, client *mlservice.Client, startedAt time.Time) *chi.Mux {
	r := chi.NewRouter()
	r.Use(gatewaymiddleware.RequestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.HandleLogin)
		r.Post("/register", auth.HandleRegister)
		r.Get("/profile", auth.HandleProfile)
	})

	r.Get("/chat/conversations", chat.HandleListConversations())

	for _, route := range proxy.Routes() {
		r.Method(route.Method, route.Pattern, proxy.Handler(route, client))
	}

	r.Route("/upload", func(r chi.Router) {
		r.Post("/netcdf", upload.HandleUpload(blobs, ledger, client))
		r.Get("/status/{jobId}", upload.HandleStatus(client))
		r.Get("/history", upload.HandleHistory(ledger))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		envelope.OK(w, r, map[string]any{
			"status":        "ok",
			"uptime":        time.Since(startedAt).Round(time.Second).String(),
			"conversations": websocket.ActiveConversationCount(),
		})
	})

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func upstreamTimeout() time.Duration {
	raw := os.Getenv("ML_SERVICE_TIMEOUT")
	if raw == "" {
		return mlservice.DefaultTimeout
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil || timeout <= 0 {
		logrus.WithField("value", raw).Warn("Invalid ML_SERVICE_TIMEOUT, using default")
		return mlservice.DefaultTimeout
	}
	return timeout
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	defaultLevel := os.Getenv("LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = "info"
	}
	listenAddress := flag.String("listen", ":3001", "The address to listen on.")
	logLevel := flag.String("loglevel", defaultLevel, "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	if os.Getenv("NODE_ENV") == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	mlServiceURL := os.Getenv("ML_SERVICE_URL")
	if mlServiceURL == "" {
		mlServiceURL = "http://localhost:8000"
	}
	client := mlservice.New(mlServiceURL, upstreamTimeout())
	logrus.WithField("mlService", client.BaseURL()).Info("Using processing service")

	blobs, ledger := stores.GetStore()

	startedAt := time.Now()
	r := setupRouter(blobs, ledger, client, startedAt)

	ioo := websocket.SetupSocketIO()
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}
