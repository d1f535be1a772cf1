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

	"github.com/inamate/schematic/internal/asset"
	"github.com/inamate/schematic/internal/auth"
	"github.com/inamate/schematic/internal/collab"
	"github.com/inamate/schematic/internal/config"
	"github.com/inamate/schematic/internal/db"
	"github.com/inamate/schematic/internal/db/dbgen"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/drawing"
	"github.com/inamate/schematic/internal/export"
	mw "github.com/inamate/schematic/internal/middleware"
)

// The playground drawing is open to anonymous users and never persisted.
const playgroundDrawingID = "dwg_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := dbgen.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	drawingService := drawing.NewService(queries, cfg.CullMarginPx)
	drawingHandler := drawing.NewHandler(drawingService)

	// Document loader for the collaboration hub
	docLoader := func(ctx context.Context, drawingID string) (*document.Document, error) {
		if drawingID == playgroundDrawingID {
			return document.NewSampleDocument(drawingID), nil
		}
		return drawingService.LoadDocument(ctx, drawingID)
	}

	// Document saver for the collaboration hub
	docSaver := func(ctx context.Context, drawingID string, doc *document.Document) error {
		if drawingID == playgroundDrawingID {
			return nil
		}
		return drawingService.SaveDocument(ctx, drawingID, doc)
	}

	hub := collab.NewHub(docLoader, docSaver, collab.Options{
		MarginPx: cfg.CullMarginPx,
		Index: collab.IndexOptions{
			Threshold: cfg.CullIndexThreshold,
			CellSize:  cfg.CullIndexCellSize,
		},
		SaveInterval: cfg.SaveInterval,
	})
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(cfg.AssetDir, cfg.CullMarginPx)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Page backgrounds and previews (public, used by the playground too)
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")
	r.HandleFunc("/export/preview", exportHandler.Preview).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.List).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.Create).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Get).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Delete).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/snapshots/latest", drawingHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}/snapshots", drawingHandler.SaveSnapshot).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}/visible", drawingHandler.Visible).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/drawing/{drawingId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, drawingService, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		slog.Info("saving all documents...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, drawings *drawing.Service, originHosts []string) {
	drawingID := mux.Vars(r)["drawingId"]

	var userID string
	var displayName string

	if drawingID == playgroundDrawingID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real drawings
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := drawings.CanAccess(r.Context(), drawingID, userID); err != nil {
			switch {
			case errors.Is(err, drawing.ErrNotFound):
				http.Error(w, "drawing not found", http.StatusNotFound)
			case errors.Is(err, drawing.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				slog.Error("check drawing access", "error", err, "drawing", drawingID)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, drawingID, clientID)

	ctx := r.Context()
	if err := hub.Register(ctx, client); err != nil {
		slog.Error("register client", "error", err, "drawing", drawingID)
		conn.Close(websocket.StatusInternalError, "failed to open drawing")
		return
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
