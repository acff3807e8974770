package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
)

type testVoteReader struct {
	mu    sync.Mutex
	votes map[string]vote.Vote
}

func (r *testVoteReader) Get(channelID string) (vote.Vote, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.votes[channelID]
	return v, ok
}

func (r *testVoteReader) List() []vote.Vote {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]vote.Vote, 0, len(r.votes))
	for _, v := range r.votes {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ChannelID < res[j].ChannelID })
	return res
}

type testScrumLister struct {
	settings []scrum.Setting
	err      error
}

func (l *testScrumLister) List(ctx context.Context) ([]scrum.Setting, error) {
	return l.settings, l.err
}

func newTestRouter(ready bool, lister *testScrumLister) http.Handler {
	votes := &testVoteReader{votes: map[string]vote.Vote{
		"C1": {
			ID:        "v1",
			ChannelID: "C1",
			Question:  "Scrum time vote (ends at 18:00)",
			Options:   []string{"B", "A"},
			Ballots:   map[string]vote.Ballot{"U1": {Option: "A", Seq: 1}},
			EndTime:   time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC),
		},
		"C2": {
			ID:        "v2",
			ChannelID: "C2",
			Options:   []string{"X"},
			Ballots:   map[string]vote.Ballot{"U9": {Option: "X", Seq: 1}},
			Anonymous: true,
		},
	}}
	return NewRouter(Deps{
		Votes: votes,
		Scrum: lister,
		Ready: func() bool { return ready },
	})
}

func doRequest(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	if rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/health"); rr.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rr.Code)
	}
	if rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/ready"); rr.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rr.Code)
	}
	if rr := doRequest(t, newTestRouter(false, &testScrumLister{}), "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: expected 503, got %d", rr.Code)
	}
}

func TestGetVoteReturnsTally(t *testing.T) {
	rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/api/v1/votes/C1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var res voteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Tally) != 2 || res.Tally[0].Option != "A" || res.Tally[0].Count != 1 {
		t.Fatalf("unexpected tally %+v", res.Tally)
	}
	if len(res.Tally[0].Voters) != 1 || res.Tally[0].Voters[0] != "U1" {
		t.Fatalf("expected named voter, got %+v", res.Tally[0])
	}
}

func TestAnonymousVoteHidesVoters(t *testing.T) {
	rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/api/v1/votes/C2")
	var res voteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Tally[0].Count != 1 || len(res.Tally[0].Voters) != 0 {
		t.Fatalf("anonymous tally leaked voters: %+v", res.Tally[0])
	}
}

func TestGetVoteNotFound(t *testing.T) {
	rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/api/v1/votes/C404")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["error"] != "no_active_vote" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestListVotes(t *testing.T) {
	rr := doRequest(t, newTestRouter(true, &testScrumLister{}), "/api/v1/votes")
	var res []voteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res) != 2 || res[0].ChannelID != "C1" {
		t.Fatalf("unexpected votes %+v", res)
	}
}

func TestListScrumTimes(t *testing.T) {
	lister := &testScrumLister{settings: []scrum.Setting{{ChannelID: "C1", Time: "09:00"}}}
	rr := doRequest(t, newTestRouter(true, lister), "/api/v1/scrum-times")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res []scrum.Setting
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil || len(res) != 1 || res[0].Time != "09:00" {
		t.Fatalf("unexpected settings %+v (%v)", res, err)
	}

	failing := &testScrumLister{err: errors.New("disk gone")}
	if rr := doRequest(t, newTestRouter(true, failing), "/api/v1/scrum-times"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestAPIRateLimited(t *testing.T) {
	h := newTestRouter(true, &testScrumLister{})

	limited := false
	for i := 0; i < 30; i++ {
		if rr := doRequest(t, h, "/api/v1/votes"); rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected rate limiting to kick in")
	}
	if rr := doRequest(t, h, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, got %d", rr.Code)
	}
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	h := newTestRouter(true, &testScrumLister{})

	limited := false
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/votes", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("rotating forwarding headers must not bypass the limit")
	}
}
