package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
)

type voteResponse struct {
	ID        string             `json:"id"`
	ChannelID string             `json:"channel_id"`
	Question  string             `json:"question"`
	Options   []string           `json:"options"`
	Tally     []vote.OptionTally `json:"tally"`
	Ballots   int                `json:"ballots"`
	AllowAdd  bool               `json:"allow_add"`
	Anonymous bool               `json:"anonymous"`
	EndTime   time.Time          `json:"end_time"`
	CreatedBy string             `json:"created_by,omitempty"`
}

func newVoteResponse(v vote.Vote) voteResponse {
	tally := v.Tally()
	if v.Anonymous {
		for i := range tally {
			tally[i].Voters = nil
		}
	}
	return voteResponse{
		ID:        v.ID,
		ChannelID: v.ChannelID,
		Question:  v.Question,
		Options:   v.Options,
		Tally:     tally,
		Ballots:   len(v.Ballots),
		AllowAdd:  v.AllowAdd,
		Anonymous: v.Anonymous,
		EndTime:   v.EndTime,
		CreatedBy: v.CreatedBy,
	}
}

// @Summary     List active votes
// @Tags        votes
// @Produce     json
// @Success     200  {array}   voteResponse
// @Failure     429  {object}  map[string]string  "rate limited"
// @Router      /api/v1/votes [get]
func (h *Handler) handleListVotes(w http.ResponseWriter, r *http.Request) {
	votes := h.votes.List()
	res := make([]voteResponse, 0, len(votes))
	for _, v := range votes {
		res = append(res, newVoteResponse(v))
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Live tally of a channel's vote
// @Tags        votes
// @Produce     json
// @Param       channel  path      string  true  "Slack channel ID"
// @Success     200      {object}  voteResponse
// @Failure     404      {object}  map[string]string  "no active vote"
// @Router      /api/v1/votes/{channel} [get]
func (h *Handler) handleGetVote(w http.ResponseWriter, r *http.Request) {
	v, ok := h.votes.Get(chi.URLParam(r, "channel"))
	if !ok {
		errorResponse(w, vote.ErrNoActiveVote)
		return
	}
	writeJSON(w, http.StatusOK, newVoteResponse(v))
}
