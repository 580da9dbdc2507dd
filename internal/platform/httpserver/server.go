package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	treasuryledger "nexus/contexts/finance-core/treasury-ledger"
	treasuryerrors "nexus/contexts/finance-core/treasury-ledger/domain/errors"
	treasuryhttp "nexus/contexts/finance-core/treasury-ledger/transport/http"
	electionservice "nexus/contexts/governance/election-service"
	electionerrors "nexus/contexts/governance/election-service/domain/errors"
	electionhttp "nexus/contexts/governance/election-service/transport/http"
	memberdirectory "nexus/contexts/identity-access/member-directory"
	membererrors "nexus/contexts/identity-access/member-directory/domain/errors"
	memberhttp "nexus/contexts/identity-access/member-directory/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "nexus/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	elections electionservice.Module
	members   memberdirectory.Module
	treasury  treasuryledger.Module
}

func New(
	elections electionservice.Module,
	members memberdirectory.Module,
	treasury treasuryledger.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
		members:   members,
		treasury:  treasury,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /api/v1/elections/{election_id}", s.handleElectionDetail)
	s.mux.HandleFunc("POST /api/v1/elections/{election_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /api/v1/elections/{election_id}/results", s.handleElectionResults)

	s.mux.HandleFunc("POST /api/v1/admin/elections", s.handleCreateElection)
	s.mux.HandleFunc("POST /api/v1/admin/elections/{election_id}/toggle", s.handleToggleElection)
	s.mux.HandleFunc("POST /api/v1/admin/elections/{election_id}/archive", s.handleArchiveElection)
	s.mux.HandleFunc("POST /api/v1/admin/elections/{election_id}/candidates", s.handleAddCandidate)

	s.mux.HandleFunc("POST /api/v1/members", s.handleRegisterMember)
	s.mux.HandleFunc("GET /api/v1/members", s.handleListMembers)
	s.mux.HandleFunc("GET /api/v1/members/{member_id}", s.handleGetMember)
	s.mux.HandleFunc("POST /api/v1/members/{member_id}/role", s.handleAssignRole)

	s.mux.HandleFunc("POST /api/v1/treasury/entries", s.handleRecordTreasuryEntry)
	s.mux.HandleFunc("GET /api/v1/treasury/entries", s.handleListTreasuryEntries)
	s.mux.HandleFunc("GET /api/v1/treasury/balance", s.handleTreasuryBalance)
	s.mux.HandleFunc("GET /api/v1/treasury/reports/{month}", s.handleTreasuryReport)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-Member-Id")
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context(), memberID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionDetail(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-Member-Id")
	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.ElectionDetailHandler(r.Context(), memberID, electionID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-Member-Id")
	if strings.TrimSpace(voterID) == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_member", "X-Member-Id header is required")
		return
	}

	var req electionhttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.CastBallotHandler(
		r.Context(),
		voterID,
		electionID,
		req,
		resolveClientIP(r),
		r.UserAgent(),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleElectionResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	recount := envQueryBool(r.URL.Query().Get("recount"))
	resp, err := s.elections.Handler.ResultsHandler(r.Context(), electionID, recount)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleToggleElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ToggleElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchiveElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ArchiveElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.AddCandidateHandler(r.Context(), r.PathValue("election_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req memberhttp.RegisterMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMemberError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.members.Handler.RegisterMemberHandler(r.Context(), req)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.members.Handler.ListMembersHandler(r.Context())
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.members.Handler.GetMemberHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req memberhttp.AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMemberError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.members.Handler.AssignRoleHandler(r.Context(), r.PathValue("member_id"), req)
	if err != nil {
		writeMemberDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordTreasuryEntry(w http.ResponseWriter, r *http.Request) {
	recordedBy := r.Header.Get("X-Member-Id")
	if strings.TrimSpace(recordedBy) == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_member", "X-Member-Id header is required")
		return
	}

	var req treasuryhttp.RecordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTreasuryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.treasury.Handler.RecordEntryHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		recordedBy,
		req,
	)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTreasuryEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := treasuryhttp.ListEntriesRequest{}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeTreasuryError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		offset, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writeTreasuryError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		req.Offset = offset
	}

	resp, err := s.treasury.Handler.ListEntriesHandler(r.Context(), req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasuryBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.BalanceHandler(r.Context())
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasuryReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.MonthlyReportHandler(r.Context(), treasuryhttp.TreasuryReportRequest{
		Month: r.PathValue("month"),
	})
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, electionerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrCandidateNotFound):
		writeElectionError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrMemberNotFound):
		writeElectionError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrElectionArchived):
		writeElectionError(w, http.StatusGone, "election_archived", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotActive):
		writeElectionError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, electionerrors.ErrNotEligible):
		writeElectionError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, electionerrors.ErrDuplicateVote):
		// err.Error() names the offending position when the coordinator
		// wrapped it in a DuplicateVoteError.
		writeElectionError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, electionerrors.ErrTransactionConflict):
		writeElectionError(w, http.StatusConflict, "transaction_conflict", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidCandidate):
		writeElectionError(w, http.StatusUnprocessableEntity, "invalid_candidate", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotDraft):
		writeElectionError(w, http.StatusConflict, "election_not_draft", err.Error())
	case errors.Is(err, electionerrors.ErrEmptyBallot),
		errors.Is(err, electionerrors.ErrInvalidElectionWindow),
		errors.Is(err, electionerrors.ErrInvalidElectionInput),
		errors.Is(err, electionerrors.ErrInvalidCandidateInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMemberDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membererrors.ErrMemberNotFound):
		writeMemberError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, membererrors.ErrEmailTaken):
		writeMemberError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, membererrors.ErrInvalidMemberInput),
		errors.Is(err, membererrors.ErrInvalidRole):
		writeMemberError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeMemberError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTreasuryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, treasuryerrors.ErrEntryNotFound):
		writeTreasuryError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, treasuryerrors.ErrIdempotencyConflict):
		writeTreasuryError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, treasuryerrors.ErrIdempotencyKeyRequired):
		writeTreasuryError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, treasuryerrors.ErrInvalidEntryInput),
		errors.Is(err, treasuryerrors.ErrInvalidMonth):
		writeTreasuryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeTreasuryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeMemberError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, memberhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeTreasuryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, treasuryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func envQueryBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
