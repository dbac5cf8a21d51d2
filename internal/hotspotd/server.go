package hotspotd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/infra/capabilities"
	"github.com/ebulabs/broadcasting-hotspot/internal/version"
)

const xmlContentType = "text/xml; charset=utf-8"

// Server answers capability and programme requests from the catalogue.
type Server struct {
	mu        sync.RWMutex
	catalogue *Catalogue
	metrics   *Metrics
	identity  Identity
	started   time.Time
}

// NewServer creates a server for catalogue.
func NewServer(catalogue *Catalogue, metrics *Metrics, identity Identity) *Server {
	s := &Server{
		metrics:  metrics,
		identity: identity,
		started:  time.Now(),
	}
	s.SetCatalogue(catalogue)
	return s
}

// SetCatalogue replaces the served catalogue.
func (s *Server) SetCatalogue(c *Catalogue) {
	s.mu.Lock()
	s.catalogue = c
	s.mu.Unlock()

	s.metrics.SetTechs(len(c.Techs))
	log.Info().Int("techs", len(c.Techs)).Msg("Catalogue loaded")
}

func (s *Server) current() *Catalogue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogue
}

// Router returns the HTTP handler with all routes installed.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(RequestMiddleware(s.metrics))
	r.Use(corsMiddleware)

	r.Get("/capabilities", s.handleCapabilities)
	r.Get("/programmes", s.handleProgrammes)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := capabilities.Encode(&buf, s.current().TechList()); err != nil {
		log.Error().Err(err).Msg("Failed to encode capabilities")
		http.Error(w, "encode capabilities", http.StatusInternalServerError)
		return
	}
	writeXML(w, buf.Bytes())
}

func (s *Server) handleProgrammes(w http.ResponseWriter, r *http.Request) {
	tech := r.URL.Query().Get("tech")
	if tech == "" {
		http.Error(w, "missing tech parameter", http.StatusBadRequest)
		return
	}

	programmes, ok := s.current().Programmes(tech)
	if !ok {
		http.Error(w, "unknown tech", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := capabilities.EncodeProgrammes(&buf, programmes); err != nil {
		log.Error().Err(err).Str("tech", tech).Msg("Failed to encode programmes")
		http.Error(w, "encode programmes", http.StatusInternalServerError)
		return
	}
	writeXML(w, buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"uuid":    s.identity.UUID,
		"name":    s.identity.Name,
		"version": version.Version,
		"techs":   len(s.current().Techs),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", xmlContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// corsMiddleware sets CORS headers on all responses so browser tools can
// read the lists.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrap, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", wrap.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
