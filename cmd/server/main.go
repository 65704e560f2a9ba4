/*
main.go - Payroll service entry point

PURPOSE:
  Boots the wage-type classification service: opens the sqlite store the
  payroll runs live in, wires the compute engine into the HTTP handlers, and
  serves the API (plus /metrics) until a shutdown signal arrives.

COMMAND-LINE FLAGS:
  -port    HTTP port (default: 8080)
  -db      SQLite database path (default: payroll.db)
           Use ":memory:" for a throwaway demo database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM in-flight requests get 30s to finish before the store
  closes. A compute that has already persisted its run is never half-written;
  runs are saved in one transaction.

EXAMPLES:
  # Demo mode: in-memory database, load a scenario via the API afterwards
  ./server -db=":memory:"

  # Production-ish: file database on a non-default port
  ./server -db="./data/payroll.db" -port=3000

SEE ALSO:
  - api/server.go: Router and middleware stack
  - api/scenarios.go: Demo datasets to load into an empty database
  - store/sqlite/sqlite.go: Append-only run storage
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "payroll.db", "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Payroll service starting on http://localhost:%d", *port)
		log.Printf("📊 API at http://localhost:%d/api, metrics at /metrics", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
