// Package main is the socialspace server entry point.
//
// main does the dependency wire-up and nothing else:
//
//  1. config
//  2. database + migrations
//  3. repositories
//  4. websocket hub, presence callbacks, dispatcher
//  5. blob store, services, rate limiters
//  6. handlers, routes, CORS
//  7. HTTP server and graceful shutdown
//
// No globals: everything is built here and passed down.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/socialspace/config"
	"github.com/akinalp/socialspace/database"
	"github.com/akinalp/socialspace/pkg/blob"
	"github.com/akinalp/socialspace/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] socialspace server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repositories ───
	repos := initRepositories(db.Conn)

	// ─── 4. WebSocket hub ───
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(cfg.WS.SendBuffer)
	dispatcher := ws.NewDispatcher(hub, hub)

	// ─── 5. Services ───
	store, err := blob.NewDiskStore(cfg.Upload.Dir, "/api/uploads/")
	if err != nil {
		log.Fatalf("[main] failed to create upload directory: %v", err)
	}

	svcs, limiters := initServices(repos, store, dispatcher, cfg)
	defer limiters.Stop()
	defer svcs.actors.Close()

	registerHubCallbacks(hub, svcs.User)
	go hub.Run(ctx)

	// ─── 6. Handlers & routes ───
	h := initHandlers(svcs, limiters, hub, dispatcher, store, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// ─── 7. HTTP server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down...")

	// Sockets first, so clients see a close frame instead of a reset.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
