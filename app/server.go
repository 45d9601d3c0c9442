package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/turtle-syndicate/bridge-settler/models"
)

const (
	HTTPServiceName = "HTTP"

	httpShutdownTimeout = 10 * time.Second
	httpReadTimeout     = 10 * time.Second
)

// HTTPService serves the cron trigger alongside /health and /metrics.
type HTTPService struct {
	server  *http.Server
	wg      *sync.WaitGroup
	started time.Time

	healthMu sync.RWMutex
	healthy  bool
}

func NewRouter(healthFn func() []models.ServiceHealth, mount func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		var healths []models.ServiceHealth
		if healthFn != nil {
			healths = healthFn()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(healths); err != nil {
			log.WithError(err).Error("[HTTP] Error encoding health")
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	if mount != nil {
		mount(r)
	}
	return r
}

func (s *HTTPService) Start() {
	log.Info("[HTTP] Listening on ", s.server.Addr)
	s.setHealthy(true)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("[HTTP] Server error")
	}
	s.setHealthy(false)
	s.wg.Done()
}

func (s *HTTPService) Stop() {
	log.Debug("[HTTP] Stopping server")
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("[HTTP] Error shutting down server")
	}
}

func (s *HTTPService) setHealthy(healthy bool) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.healthy = healthy
}

func (s *HTTPService) Health() models.ServiceHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return models.ServiceHealth{
		Name:         HTTPServiceName,
		LastSyncTime: s.started,
		NextSyncTime: time.Now(),
		Healthy:      s.healthy,
	}
}

// NewHTTPService serves handler on the configured address. The write timeout
// outlasts the longest settlement run so a trigger always gets its status.
func NewHTTPService(wg *sync.WaitGroup, handler http.Handler) Service {
	if !Config.HTTP.Enabled {
		log.Debug("[HTTP] Disabled")
		return NewEmptyService(wg)
	}

	writeTimeout := time.Duration(Config.Bridge.MaxDurationSecs)*time.Second + 30*time.Second

	return &HTTPService{
		server: &http.Server{
			Addr:              Config.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: httpReadTimeout,
			ReadTimeout:       httpReadTimeout,
			WriteTimeout:      writeTimeout,
		},
		wg:      wg,
		started: time.Now(),
	}
}
