// Package web serves the controller's status over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/stats"
)

// Switch is the runtime heater enable.
type Switch interface {
	Enable()
	Disable() error
	Enabled() bool
}

type Options struct {
	Heater    Switch
	Metrics   http.Handler
	DutyCycle func() float64
	Trend     func() stats.Snapshot
	// HistorySize is the number of reports kept for /history.
	HistorySize int
}

type Status struct {
	Report        *report.Report          `json:"report"`
	HeaterEnabled bool                    `json:"heater_enabled"`
	DutyCycle     float64                 `json:"duty_cycle"`
	Trend         stats.Snapshot          `json:"trend"`
	Extremes      report.ExtremesSnapshot `json:"extremes"`
}

type Server struct {
	httpServer *http.Server
	opts       Options
	extremes   report.Extremes
	history    *report.History
	mu         sync.Mutex
	latest     *report.Report
}

func New(addr string, opts Options) *Server {
	s := &Server{opts: opts, history: report.NewHistory(opts.HistorySize)}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/heater/{state:on|off}", s.handleHeater).Methods("POST")
	r.HandleFunc("/extremes/reset", s.handleResetExtremes).Methods("POST")
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics).Methods("GET")
	}
	return r
}

// Run records each report for /status and /history until input closes or
// ctx is done.
func (s *Server) Run(ctx context.Context, input <-chan report.Report) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-input:
				if !ok {
					return nil
				}
				s.extremes.Observe(r)
				s.history.Add(r)
				s.mu.Lock()
				s.latest = &r
				s.mu.Unlock()
			}
		}
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			slog.Info("http server listening", "addr", s.httpServer.Addr, "module", "web")
			errCh <- s.httpServer.ListenAndServe()
		}()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.httpServer.Shutdown(shutdownCtx)
		}
	}
}

func (s *Server) Snapshot() Status {
	st := Status{Extremes: s.extremes.Snapshot()}
	s.mu.Lock()
	if s.latest != nil {
		r := *s.latest
		st.Report = &r
	}
	s.mu.Unlock()
	if s.opts.Heater != nil {
		st.HeaterEnabled = s.opts.Heater.Enabled()
	}
	if s.opts.DutyCycle != nil {
		st.DutyCycle = s.opts.DutyCycle()
	}
	if s.opts.Trend != nil {
		st.Trend = s.opts.Trend()
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ready := s.latest != nil
	s.mu.Unlock()
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type History struct {
	Capacity int             `json:"capacity"`
	Reports  []report.Report `json:"reports"`
}

// handleHistory returns the retained reports oldest first. ?limit=N keeps
// only the newest N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	reports := s.history.Reports()
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		if n < len(reports) {
			reports = reports[len(reports)-n:]
		}
	}
	writeJSON(w, http.StatusOK, History{Capacity: s.history.Cap(), Reports: reports})
}

func (s *Server) handleHeater(w http.ResponseWriter, r *http.Request) {
	if s.opts.Heater == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no heater switch"})
		return
	}
	if mux.Vars(r)["state"] == "on" {
		s.opts.Heater.Enable()
	} else if err := s.opts.Heater.Disable(); err != nil {
		slog.Error("heater disable failed", "error", err, "module", "web")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"heater_enabled": s.opts.Heater.Enabled()})
}

func (s *Server) handleResetExtremes(w http.ResponseWriter, r *http.Request) {
	s.extremes.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err, "module", "web")
	}
}
