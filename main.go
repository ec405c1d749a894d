package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/neti77/anotequest-v1-sub000/config"
	"github.com/neti77/anotequest-v1-sub000/handlers/api/board"
	"github.com/neti77/anotequest-v1-sub000/handlers/api/kv"
	"github.com/neti77/anotequest-v1-sub000/handlers/api/snapshots"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/handlers/websocket"
	authMiddleware "github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/session"
	"github.com/neti77/anotequest-v1-sub000/stores"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const shutdownTimeout = 15 * time.Second

func setupRouter(cfg *config.Config, store stores.Store, manager *session.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/token", auth.HandleToken)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Auth(cfg.Auth.Required))

		r.Mount("/board", board.Routes(manager))

		r.Route("/kv", func(r chi.Router) {
			r.Get("/", kv.HandleListCollections(store))
			r.Get("/{key}", kv.HandleGetCollection(store))
		})

		snaps := snapshots.NewCollectionSnapshots(store)
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", snapshots.HandleListSnapshots(snaps))
			r.Post("/", snapshots.HandleCreateSnapshot(snaps, manager))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", snapshots.HandleGetSnapshot(snaps))
				r.Post("/restore", snapshots.HandleRestoreSnapshot(snaps, manager))
			})
		})
		r.Get("/export", snapshots.HandleExport(manager))
		r.Post("/import", snapshots.HandleImport(manager))

		r.Get("/rooms", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, websocket.GetActiveRooms())
		})
	})

	return r
}

func waitForShutdown(ioo *socketio.Server, srv *http.Server, manager *session.Manager) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	ioo.Close(nil)
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Failed to stop http server")
	}
	if err := manager.FlushAll(ctx); err != nil {
		logrus.WithError(err).Error("Failed to flush boards")
		os.Exit(1)
	}
	logrus.WithField("boards", len(manager.Boards())).Info("Boards flushed")
	os.Exit(0)
}

func main() {
	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()
	auth.InitAuth(cfg.Auth)
	store := stores.GetStore(cfg.Storage)
	manager := session.NewManager(store, session.OptionsFromConfig(*cfg))

	r := setupRouter(cfg, store, manager)

	ioo := websocket.SetupSocketIO(manager, *cfg)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, srv, manager)
}
