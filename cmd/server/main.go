package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/sysdraw/sysdraw/backend-go/internal/asset"
	"github.com/sysdraw/sysdraw/backend-go/internal/auth"
	"github.com/sysdraw/sysdraw/backend-go/internal/collab"
	"github.com/sysdraw/sysdraw/backend-go/internal/config"
	"github.com/sysdraw/sysdraw/backend-go/internal/db"
	"github.com/sysdraw/sysdraw/backend-go/internal/design"
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/export"
	mw "github.com/sysdraw/sysdraw/backend-go/internal/middleware"
)

// playgroundDesignID is an anonymous shared room seeded with the sample
// design. It is never persisted.
const playgroundDesignID = "dsgn_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	authService, err := auth.NewService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	assets, err := asset.NewStore(cfg.ThumbnailDir, "/thumbnails/")
	if err != nil {
		return err
	}
	designService := design.NewService(design.NewPostgres(pool), assets)
	designHandler := design.NewHandler(designService)

	load := func(ctx context.Context, designID string) (*document.Document, error) {
		if designID == playgroundDesignID {
			return document.NewSampleDocument(designID), nil
		}
		return designService.LoadDocument(ctx, designID)
	}
	save := func(ctx context.Context, designID string, doc *document.Document) error {
		if designID == playgroundDesignID {
			return nil
		}
		return designService.StoreDocument(ctx, designID, doc)
	}
	hub := collab.NewHub(load, save, collab.WithSaveInterval(cfg.SaveInterval))

	exportHandler := export.NewHandler()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.PathPrefix(assets.Prefix()).Handler(assets.Serve()).Methods("GET")

	// Public so the playground can export without an account
	r.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	designHandler.Register(api)

	r.HandleFunc("/ws/design/{designId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, designService, cfg.OriginPatterns())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, designs *design.Service, origins []string) {
	designID := mux.Vars(r)["designId"]

	var id auth.Identity
	if designID == playgroundDesignID {
		id = auth.Identity{UserID: "anon-" + uuid.New().String()[:8], DisplayName: "Anonymous"}
	} else {
		// Browsers cannot set headers on websocket requests
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		id, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := designs.Authorize(r.Context(), designID, id.UserID); err != nil {
			switch {
			case errors.Is(err, design.ErrNotFound):
				http.Error(w, "design not found", http.StatusNotFound)
			case errors.Is(err, design.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				slog.Error("authorize websocket", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, id.UserID, id.DisplayName, designID, uuid.New().String())
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
