package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/chatmandu/elections/internal/adapters/handler/http"
	"github.com/chatmandu/elections/internal/core/domain"
)

var eligibleAccount = time.Now().Add(-365 * 24 * time.Hour).Format(time.RFC3339)

func doJSON(t *testing.T, app *testApp, method, path, userID string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req, err := http.NewRequest(method, app.Server.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(handler.UserIDHeader, userID)
		req.Header.Set(handler.AccountCreatedAtHeader, eligibleAccount)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestElectionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	// 1. Create an election
	resp := doJSON(t, app, "POST", "/api/elections", "creator", map[string]interface{}{
		"title":       "Prime Minister of Chatmandu",
		"description": "choose wisely",
		"candidates":  []string{"A", "B", "C"},
		"duration":    "1h",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var snapshot domain.ElectionSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	resp.Body.Close()
	require.Len(t, snapshot.Candidates, 3)
	assert.Equal(t, domain.StatusActive, snapshot.Status)

	// 2. Three eligible users vote: A, A, B
	for i, candidateID := range []int{1, 1, 2} {
		resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/votes", snapshot.ID),
			fmt.Sprintf("voter-%d", i), map[string]interface{}{"candidate_id": candidateID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// 3. A repeat vote is rejected
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/votes", snapshot.ID),
		"voter-0", map[string]interface{}{"candidate_id": 3})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The ledger backs the tallies exactly
	var voteRows int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM votes WHERE election_id = $1", snapshot.ID).Scan(&voteRows))
	assert.Equal(t, 3, voteRows)

	// 4. Only the creator (or an admin) may end it
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/end", snapshot.ID), "voter-0", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/end", snapshot.ID), "creator", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.ElectionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()

	assert.Equal(t, 3, result.TotalVotes)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "A", result.Winner.Text)
	assert.Equal(t, 2, result.Winner.VoteCount)
	require.Len(t, result.RunnersUp, 2)
	assert.Equal(t, "B", result.RunnersUp[0].Text)
	assert.Equal(t, "C", result.RunnersUp[1].Text)

	// 5. Ending twice is a conflict
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/end", snapshot.ID), "creator", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestVoteEligibilityOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := doJSON(t, app, "POST", "/api/elections", "creator", map[string]interface{}{
		"title":      "eligibility",
		"candidates": []string{"A", "B"},
		"duration":   "1h",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var snapshot domain.ElectionSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	resp.Body.Close()

	// An account younger than six months is turned away
	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/elections/%s/votes", app.Server.URL, snapshot.ID),
		bytes.NewReader([]byte(`{"candidate_id":1}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.UserIDHeader, "newbie")
	req.Header.Set(handler.AccountCreatedAtHeader, time.Now().Add(-24*time.Hour).Format(time.RFC3339))
	resp, err = app.Client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// An unknown candidate is a bad request
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/votes", snapshot.ID),
		"voter-1", map[string]interface{}{"candidate_id": 42})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Voting in a missing election is not found
	resp = doJSON(t, app, "POST", "/api/elections/missing/votes",
		"voter-1", map[string]interface{}{"candidate_id": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAuditTrailOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := doJSON(t, app, "POST", "/api/elections", "creator", map[string]interface{}{
		"title":      "audit",
		"candidates": []string{"A", "B"},
		"duration":   "2d",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var snapshot domain.ElectionSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	resp.Body.Close()

	for i := 0; i < 2; i++ {
		resp = doJSON(t, app, "POST", fmt.Sprintf("/api/elections/%s/votes", snapshot.ID),
			fmt.Sprintf("voter-%d", i), map[string]interface{}{"candidate_id": 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = doJSON(t, app, "GET", fmt.Sprintf("/api/elections/%s/audit", snapshot.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trail domain.AuditTrail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trail))
	resp.Body.Close()

	assert.Equal(t, 2, trail.TotalVotes)
	assert.Equal(t, 2, trail.UniqueVoters)
	require.Len(t, trail.History, 2)
	assert.Equal(t, "voter-0", trail.History[0].UserID)
}
