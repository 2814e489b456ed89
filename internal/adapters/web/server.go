// Package web exposes the recognizer's status over HTTP: a health check, a
// Prometheus scrape endpoint, a JSON snapshot of tracked targets, and a
// websocket feed of lifecycle events for a live dashboard.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
)

// TargetSnapshot is one row of the /targets JSON response.
type TargetSnapshot struct {
	BSSID          string `json:"bssid"`
	ClientsTracked int    `json:"clients_tracked"`
}

// StatusSource is the read-only view into the running recognizer the web
// server needs. Implemented by a thin adapter in internal/app.
type StatusSource interface {
	Targets() []TargetSnapshot
	Stopped() bool
}

// Credentials gate the admin-facing endpoints (/targets and /report.pdf) behind HTTP basic
// auth. An empty PassHash disables auth entirely (useful for local
// development and tests).
type Credentials struct {
	User     string
	PassHash string
}

// ReportFunc renders the current capture-summary PDF on demand. It is
// expected to wrap reporting.PDFReporter.Render over a freshly built
// reporting.Summary.
type ReportFunc func() ([]byte, error)

// Server is the HTTP status/dashboard server.
type Server struct {
	Addr        string
	Status      StatusSource
	Credentials Credentials
	Events      *EventHub
	Report      ReportFunc

	srv *http.Server
}

// NewServer builds a Server; call Run to start serving. report may be nil,
// in which case /report.pdf responds 404.
func NewServer(addr string, status StatusSource, creds Credentials, events *EventHub, report ReportFunc) *Server {
	return &Server{Addr: addr, Status: status, Credentials: creds, Events: events, Report: report}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/events", s.Events.ServeHTTP).Methods(http.MethodGet)

	admin := router.PathPrefix("/targets").Subrouter()
	admin.Use(s.basicAuth)
	admin.HandleFunc("", s.handleTargets).Methods(http.MethodGet)

	report := router.PathPrefix("/report.pdf").Subrouter()
	report.Use(s.basicAuth)
	report.HandleFunc("", s.handleReportPDF).Methods(http.MethodGet)

	handler := otelhttp.NewHandler(router, "zizzaniad-web")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web server shutdown error: %v", err)
		}
	}()

	log.Printf("web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.Status.Stopped() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("stopped"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status.Targets()); err != nil {
		log.Printf("encoding targets response: %v", err)
	}
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if s.Report == nil {
		http.NotFound(w, r)
		return
	}
	pdf, err := s.Report()
	if err != nil {
		log.Printf("rendering report: %v", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="zizzaniad-report.pdf"`)
	_, _ = w.Write(pdf)
}

// basicAuth enforces HTTP basic auth with a bcrypt-hashed password. A
// blank Credentials.PassHash disables the check.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Credentials.PassHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Credentials.User ||
			bcrypt.CompareHashAndPassword([]byte(s.Credentials.PassHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="zizzaniad"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
