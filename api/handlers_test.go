/*
handlers_test.go - HTTP surface tests

Tests for:
- Match creation and the scoring round trip over HTTP
- Error-to-status mapping (400 / 404 / 409)
- The SSE stream's initial snapshot event
*/
package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cricket-engine/broadcast"
	"github.com/warp/cricket-engine/factory"
	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
	"github.com/warp/cricket-engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := broadcast.New()
	manager := match.NewManager(store.NewMemory(), hub)
	router := NewRouter(NewHandler(manager, hub), []string{"http://localhost:5173"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func testSetup(matchID string) factory.MatchSetup {
	players := func(prefix string, n int) []factory.PlayerSetup {
		out := make([]factory.PlayerSetup, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, factory.PlayerSetup{ID: fmt.Sprintf("%s%d", prefix, i)})
		}
		return out
	}
	return factory.MatchSetup{
		MatchID:      matchID,
		Home:         factory.TeamSetup{ID: "lions", Name: "Lions", Players: players("l", 11)},
		Away:         factory.TeamSetup{ID: "tigers", Name: "Tigers", Players: players("t", 11)},
		OversLimit:   20,
		TossWinner:   "lions",
		TossDecision: "bat",
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) scoring.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snap scoring.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func deliveryBody(striker, nonStriker, bowler string, runs int) DeliveryRequest {
	return DeliveryRequest{
		StrikerID:    striker,
		NonStrikerID: nonStriker,
		BowlerID:     bowler,
		RunsOffBat:   runs,
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestAPI_ScoreCorrectUndoRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	// Create the match.
	resp := postJSON(t, srv.URL+"/api/matches", testSetup("m1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, scoring.StatusNotStarted, snap.Status)

	// Score two balls.
	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries", deliveryBody("l1", "l2", "t1", 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries", deliveryBody("l1", "l2", "t1", 0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, 2, snap.TotalRuns)
	assert.Equal(t, 2, snap.LegalBalls)

	// List the ledger and take the first delivery's id.
	resp, err := http.Get(srv.URL + "/api/matches/m1/deliveries")
	require.NoError(t, err)
	var listing struct {
		Deliveries []DeliveryDTO `json:"deliveries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing.Deliveries, 2)

	// Correct ball one from 2 to 6.
	six := 6
	resp = postJSON(t,
		srv.URL+"/api/matches/m1/deliveries/"+listing.Deliveries[0].ID+"/correct",
		CorrectionRequest{RunsOffBat: &six})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, 6, snap.TotalRuns)

	// Undo the second ball.
	resp = postJSON(t, srv.URL+"/api/matches/m1/undo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, 6, snap.TotalRuns)
	assert.Equal(t, 1, snap.LegalBalls)

	// Poll the snapshot: same figures as the mutation responses.
	resp, err = http.Get(srv.URL + "/api/matches/m1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	polled := decodeSnapshot(t, resp)
	assert.Equal(t, snap, polled)
}

func TestAPI_Revision(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/matches", testSetup("m1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	target := 120
	resp = postJSON(t, srv.URL+"/api/matches/m1/revision", RevisionRequest{Target: &target})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// An empty revision is meaningless.
	resp = postJSON(t, srv.URL+"/api/matches/m1/revision", RevisionRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_ListMatches(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv.URL+"/api/matches", testSetup("m1")).Body.Close()
	postJSON(t, srv.URL+"/api/matches", testSetup("m2")).Body.Close()

	resp, err := http.Get(srv.URL + "/api/matches")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listing struct {
		Matches []string `json:"matches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.ElementsMatch(t, []string{"m1", "m2"}, listing.Matches)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestAPI_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/matches", testSetup("m1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// 409: duplicate match id.
	resp = postJSON(t, srv.URL+"/api/matches", testSetup("m1"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 400: malformed setup.
	bad := testSetup("m3")
	bad.TossDecision = "field"
	resp = postJSON(t, srv.URL+"/api/matches", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// 404: unknown match.
	resp = postJSON(t, srv.URL+"/api/matches/nope/deliveries", deliveryBody("l1", "l2", "t1", 0))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// 400: extras-table violation.
	wide := deliveryBody("l1", "l2", "t1", 0)
	wide.Extra = "wide"
	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries", wide)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Score one legal ball, then force a sequence conflict.
	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries", deliveryBody("l1", "l2", "t1", 0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// 409: batter pair that does not match the crease.
	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries", deliveryBody("l1", "l9", "t1", 0))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 404: correcting an unknown delivery id.
	resp = postJSON(t, srv.URL+"/api/matches/m1/deliveries/ghost/correct", CorrectionRequest{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// STREAMING
// =============================================================================

func TestAPI_StreamSendsInitialSnapshot(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/matches", testSetup("m1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	stream, err := http.Get(srv.URL + "/api/matches/m1/stream")
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot\n", event)

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "data: "))

	var snap scoring.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &snap))
	assert.Equal(t, "m1", snap.MatchID)
	assert.Equal(t, scoring.StatusNotStarted, snap.Status)
}
