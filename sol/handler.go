package sol

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

// Trigger runs one settlement pass.
type Trigger interface {
	RunOnce(ctx context.Context) (*RunResult, error)
}

type CronHandler struct {
	trigger Trigger
	secret  string
}

func NewCronHandler(trigger Trigger, secret string) *CronHandler {
	return &CronHandler{trigger: trigger, secret: secret}
}

// Mount registers the handler for every method so non-GET requests get an
// explicit Allow header.
func (h *CronHandler) Mount(r chi.Router, path string) {
	r.HandleFunc(path, h.ServeHTTP)
}

func (h *CronHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}

// ServeHTTP writes only a status line once the run finishes.
func (h *CronHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		log.WithField("remote_addr", r.RemoteAddr).Warn("[HTTP] Unauthorized cron request")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// a client disconnect must not abort a run midway
	result, err := h.trigger.RunOnce(context.WithoutCancel(r.Context()))
	if err != nil {
		log.WithError(err).Error("[HTTP] Settlement run failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"run_id":   result.RunId,
		"skipped":  result.Skipped,
		"settled":  result.Settled,
		"failed":   result.Failed,
		"deferred": result.Deferred,
	}).Info("[HTTP] Settlement run completed")
	w.WriteHeader(http.StatusNoContent)
}
