package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
)

// VoteReader exposes the live votes without any way to change them.
type VoteReader interface {
	Get(channelID string) (vote.Vote, bool)
	List() []vote.Vote
}

type ScrumLister interface {
	List(ctx context.Context) ([]scrum.Setting, error)
}

type Deps struct {
	Votes VoteReader
	Scrum ScrumLister
	// Ready reports whether the Slack connection is up.
	Ready func() bool
}

type Handler struct {
	votes VoteReader
	scrum ScrumLister
	ready func() bool
}

func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		votes: deps.Votes,
		scrum: deps.Scrum,
		ready: deps.Ready,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(rate.Every(time.Second/5), 10))

		if h.votes != nil {
			r.Get("/votes", h.handleListVotes)
			r.Get("/votes/{channel}", h.handleGetVote)
		}
		if h.scrum != nil {
			r.Get("/scrum-times", h.handleListScrumTimes)
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// @Summary     Readiness
// @Tags        ops
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     503  {object}  map[string]string  "slack not connected"
// @Router      /ready [get]
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "slack_unavailable",
			"message": "socket mode not connected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
