package admin

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/engine"
)

// Status is the JSON body served at /status.
type Status struct {
	Network       string          `json:"network"`
	Uptime        string          `json:"uptime"`
	CachedOffers  int             `json:"cachedOffers"`
	CachedIntents int             `json:"cachedIntents"`
	Engine        engine.Snapshot `json:"engine"`
}

// HTTPServer serves /metrics and /status.
type HTTPServer struct {
	server  *http.Server
	book    *book.Book
	metrics *engine.Metrics
	network string
}

// NewHTTPServer wires the observability listener.
func NewHTTPServer(addr, network string, b *book.Book, m *engine.Metrics) *HTTPServer {
	s := &HTTPServer{
		book:    b,
		metrics: m,
		network: network,
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// StartAsync begins serving in a goroutine.
func (s *HTTPServer) StartAsync() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("admin: http server: %v", err)
		}
	}()
	return nil
}

// Stop shuts the listener down, letting in-flight requests finish.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	offers, intents := s.book.Counts()
	snap := s.metrics.Snapshot()
	status := Status{
		Network:       s.network,
		Uptime:        time.Since(snap.StartedAt).Round(time.Second).String(),
		CachedOffers:  offers,
		CachedIntents: intents,
		Engine:        snap,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Printf("admin: encode status: %v", err)
	}
}
