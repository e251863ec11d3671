/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Rentally arrears/compliance server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Build the calendar (built-in NZ tables, or a holiday file)
  4. Create API handler and router
  5. Start the compliance sweep
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: rentally.db)
             Use ":memory:" for an in-memory database
  -holidays  Optional YAML/JSON holiday table (default: built-in NZ data)
  -statute   Optional YAML/JSON statutory threshold overrides
  -sweep     Compliance sweep interval (default: 1h; 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep and close the database
  4. Exit

EXAMPLES:
  # Run with file database and built-in NZ holidays
  ./rentally-server -db="./data/rentally.db"

  # Run with a custom holiday table and overridden thresholds
  ./rentally-server -holidays=./holidays.yaml -statute=./statute.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - factory/config.go: Holiday table and statute loading
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/ronven594/rentally-sub000/api"
	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/factory"
	"github.com/ronven594/rentally-sub000/nz"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "rentally.db", "SQLite database path")
	holidayPath := flag.String("holidays", "", "holiday table file (default: built-in NZ data)")
	statutePath := flag.String("statute", "", "statutory threshold overrides file")
	sweepInterval := flag.Duration("sweep", time.Hour, "compliance sweep interval (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Build the calendar
	calendar := nz.NewCalendar()
	if *holidayPath != "" {
		table, err := factory.LoadHolidayTable(*holidayPath)
		if err != nil {
			log.Fatalf("Failed to load holiday table: %v", err)
		}
		calendar.Provider = table
	}
	if *statutePath != "" {
		statute, err := factory.LoadStatute(*statutePath)
		if err != nil {
			log.Fatalf("Failed to load statute config: %v", err)
		}
		calendar.Statute = statute
	}
	calendar.Warn = func(w engine.MissingHolidayDataWarning) {
		log.Printf("Warning: no holiday data for %d, using %d", w.RequestedYear, w.FallbackYear)
	}

	eng := engine.NewComplianceEngine(calendar)

	// Initialize handler and router
	handler := api.NewHandler(store, eng)
	router := api.NewRouter(handler)

	// Background compliance sweep
	sweep := api.NewComplianceSweep(store, eng)
	if *sweepInterval <= 0 {
		sweep.Enabled = false
	} else {
		sweep.CheckInterval = *sweepInterval
	}
	sweep.Start()
	defer sweep.Stop()

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
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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
