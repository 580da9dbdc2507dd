package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordEntryRequest struct {
	Direction   string  `json:"direction"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	OccurredAt  string  `json:"occurred_at,omitempty"`
}

type LedgerEntryDTO struct {
	EntryID     string  `json:"entry_id"`
	Direction   string  `json:"direction"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	RecordedBy  string  `json:"recorded_by"`
	OccurredAt  string  `json:"occurred_at"`
	RecordedAt  string  `json:"recorded_at"`
}

type RecordEntryResponse struct {
	Status   string         `json:"status"`
	Replayed bool           `json:"replayed,omitempty"`
	Data     LedgerEntryDTO `json:"data"`
}

type ListEntriesRequest struct {
	Limit  int
	Offset int
}

type ListEntriesResponse struct {
	Status string           `json:"status"`
	Data   []LedgerEntryDTO `json:"data"`
}

type BalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Balance float64 `json:"balance"`
	} `json:"data"`
}

type TreasuryReportRequest struct {
	Month string
}

type TreasuryReportResponse struct {
	Status string `json:"status"`
	Data   struct {
		Month        string  `json:"month"`
		Count        int     `json:"count"`
		TotalIncome  float64 `json:"total_income"`
		TotalExpense float64 `json:"total_expense"`
		Net          float64 `json:"net"`
	} `json:"data"`
}
