package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StatsProvider reports live gauges for the debug endpoint.
type StatsProvider func() map[string]any

// StartDebugServer exposes relay internals on a side port for local
// inspection. Not meant to be reachable from outside the host.
func StartDebugServer(log *slog.Logger, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := statsProvider()
		stats["time"] = time.Now().Format(time.RFC822)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	go func() {
		addr := fmt.Sprintf("localhost:%d", port)
		log.Info("Debug server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
}
