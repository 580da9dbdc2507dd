package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastBallotRequest struct {
	// Votes maps position name to the chosen candidate id.
	Votes map[string]string `json:"votes"`
}

type CastBallotResponse struct {
	ElectionID        string          `json:"election_id"`
	PositionsRecorded int             `json:"positions_recorded"`
	Entries           []BallotSummary `json:"entries"`
}

type BallotSummary struct {
	BallotID    string `json:"ballot_id"`
	CandidateID string `json:"candidate_id"`
	Position    string `json:"position"`
	CastAt      string `json:"cast_at"`
}

type ElectionListItem struct {
	ElectionID string `json:"id"`
	Title      string `json:"title"`
	Phase      string `json:"phase"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
	HasVoted   bool   `json:"has_voted"`
	CanVote    bool   `json:"can_vote"`
}

type ListElectionsResponse struct {
	Elections []ElectionListItem `json:"elections"`
}

type CandidateItem struct {
	CandidateID     string `json:"id"`
	MemberID        string `json:"member_id"`
	Position        string `json:"position"`
	Manifesto       string `json:"manifesto,omitempty"`
	VisionStatement string `json:"vision_statement,omitempty"`
}

type ElectionDetailResponse struct {
	ElectionID           string                     `json:"id"`
	Title                string                     `json:"title"`
	Description          string                     `json:"description"`
	Phase                string                     `json:"phase"`
	StartAt              string                     `json:"start_at"`
	EndAt                string                     `json:"end_at"`
	CandidatesByPosition map[string][]CandidateItem `json:"candidates_by_position"`
	VotedPositions       []string                   `json:"voted_positions"`
}

type TallyItem struct {
	CandidateID string `json:"candidate_id"`
	MemberID    string `json:"member_id"`
	Position    string `json:"position"`
	VoteCount   int64  `json:"vote_count"`
	LedgerCount int64  `json:"ledger_count,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

type ResultsResponse struct {
	ElectionID string      `json:"election_id"`
	TotalVotes int64       `json:"total_votes"`
	Tallies    []TallyItem `json:"tallies"`
}

type CreateElectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
}

type AddCandidateRequest struct {
	MemberID        string `json:"member_id"`
	Position        string `json:"position"`
	Manifesto       string `json:"manifesto"`
	VisionStatement string `json:"vision_statement"`
}

type ElectionResponse struct {
	ElectionID  string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
	IsActive    bool   `json:"is_active"`
	Status      string `json:"status"`
}

type CandidateResponse struct {
	CandidateID string `json:"id"`
	ElectionID  string `json:"election_id"`
	MemberID    string `json:"member_id"`
	Position    string `json:"position"`
}
