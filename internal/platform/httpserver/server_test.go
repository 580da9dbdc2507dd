package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	treasuryledger "nexus/contexts/finance-core/treasury-ledger"
	electionservice "nexus/contexts/governance/election-service"
	"nexus/contexts/governance/election-service/domain/entities"
	electionports "nexus/contexts/governance/election-service/ports"
	electionhttp "nexus/contexts/governance/election-service/transport/http"
	memberdirectory "nexus/contexts/identity-access/member-directory"
	memberhttp "nexus/contexts/identity-access/member-directory/transport/http"
)

type serverFixture struct {
	handler   http.Handler
	elections electionservice.Module
	members   memberdirectory.Module
	treasury  treasuryledger.Module
}

func newServerFixture(t *testing.T) serverFixture {
	t.Helper()

	elections := electionservice.NewInMemoryModule(nil)
	members := memberdirectory.NewInMemoryModule(nil)
	treasury := treasuryledger.NewInMemoryModule(nil)

	elections.Store.SetMember(electionports.MemberProjection{
		MemberID:    "member-1",
		DisplayName: "Ada",
		Role:        "member",
	})
	elections.Store.SetElection(entities.Election{
		ElectionID: "election-1",
		Title:      "Spring Board Election",
		StartAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
		Status:     entities.ElectionStatusLive,
	})
	elections.Store.SetCandidate(entities.Candidate{
		CandidateID: "cand-pres-1",
		ElectionID:  "election-1",
		MemberID:    "member-9",
		Position:    "President",
	})
	elections.Store.SetNow(time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC))

	server := New(elections, members, treasury, nil, ":0")
	return serverFixture{
		handler:   server.Handler(),
		elections: elections,
		members:   members,
		treasury:  treasury,
	}
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestCastBallotEndpoint(t *testing.T) {
	fixture := newServerFixture(t)

	headers := map[string]string{"X-Member-Id": "member-1"}
	body := electionhttp.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	}

	rec := doJSON(t, fixture.handler, http.MethodPost, "/api/v1/elections/election-1/ballots", headers, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}
	var resp electionhttp.CastBallotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PositionsRecorded != 1 || len(resp.Entries) != 1 {
		t.Fatalf("unexpected cast response %+v", resp)
	}

	// Same voter, same position, second submission.
	rec = doJSON(t, fixture.handler, http.MethodPost, "/api/v1/elections/election-1/ballots", headers, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
	var errResp electionhttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != "duplicate_vote" {
		t.Fatalf("expected duplicate_vote code, got %q", errResp.Code)
	}
	if !strings.Contains(errResp.Message, "President") {
		t.Fatalf("duplicate message must name the position, got %q", errResp.Message)
	}
}

func TestCastBallotRequiresMemberHeader(t *testing.T) {
	fixture := newServerFixture(t)

	rec := doJSON(t, fixture.handler, http.MethodPost, "/api/v1/elections/election-1/ballots", nil, electionhttp.CastBallotRequest{
		Votes: map[string]string{"President": "cand-pres-1"},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp electionhttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != "missing_member" {
		t.Fatalf("expected missing_member code, got %q", errResp.Code)
	}
}

func TestUnknownElectionReturnsNotFound(t *testing.T) {
	fixture := newServerFixture(t)

	rec := doJSON(t, fixture.handler, http.MethodGet, "/api/v1/elections/no-such-election/results", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMemberRegistrationEndpoint(t *testing.T) {
	fixture := newServerFixture(t)

	rec := doJSON(t, fixture.handler, http.MethodPost, "/api/v1/members", nil, memberhttp.RegisterMemberRequest{
		DisplayName: "Grace",
		Email:       "grace@club.example",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, fixture.handler, http.MethodPost, "/api/v1/members", nil, memberhttp.RegisterMemberRequest{
		DisplayName: "Grace Again",
		Email:       "GRACE@club.example",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestTreasuryEntryEndpoint(t *testing.T) {
	fixture := newServerFixture(t)

	headers := map[string]string{
		"X-Member-Id":     "treasurer-1",
		"Idempotency-Key": "idem-http-1",
	}
	body := map[string]any{
		"direction":   "income",
		"category":    "membership dues",
		"amount":      75.00,
		"occurred_at": "2026-01-05T00:00:00Z",
	}

	rec := doJSON(t, fixture.handler, http.MethodPost, "/api/v1/treasury/entries", headers, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}

	// No Idempotency-Key header.
	rec = doJSON(t, fixture.handler, http.MethodPost, "/api/v1/treasury/entries", map[string]string{
		"X-Member-Id": "treasurer-1",
	}, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", rec.Code)
	}

	rec = doJSON(t, fixture.handler, http.MethodGet, "/api/v1/treasury/balance", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var balance struct {
		Data struct {
			Balance float64 `json:"balance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Data.Balance != 75 {
		t.Fatalf("expected balance 75, got %f", balance.Data.Balance)
	}
}
