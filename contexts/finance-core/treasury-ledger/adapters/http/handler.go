package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"nexus/contexts/finance-core/treasury-ledger/application"
	"nexus/contexts/finance-core/treasury-ledger/ports"
	httptransport "nexus/contexts/finance-core/treasury-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RecordEntryHandler(
	ctx context.Context,
	idempotencyKey string,
	recordedBy string,
	req httptransport.RecordEntryRequest,
) (httptransport.RecordEntryResponse, error) {
	occurredAt, _ := time.Parse(time.RFC3339, req.OccurredAt)
	entry, replayed, err := h.Service.RecordEntry(ctx, idempotencyKey, ports.RecordEntryInput{
		Direction:   req.Direction,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		RecordedBy:  recordedBy,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		return httptransport.RecordEntryResponse{}, err
	}
	return httptransport.RecordEntryResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(entry),
	}, nil
}

func (h Handler) ListEntriesHandler(
	ctx context.Context,
	req httptransport.ListEntriesRequest,
) (httptransport.ListEntriesResponse, error) {
	items, err := h.Service.ListEntries(ctx, req.Limit, req.Offset)
	if err != nil {
		return httptransport.ListEntriesResponse{}, err
	}
	resp := httptransport.ListEntriesResponse{
		Status: "success",
		Data:   make([]httptransport.LedgerEntryDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func (h Handler) BalanceHandler(ctx context.Context) (httptransport.BalanceResponse, error) {
	balance, err := h.Service.Balance(ctx)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	resp := httptransport.BalanceResponse{Status: "success"}
	resp.Data.Balance = balance
	return resp, nil
}

func (h Handler) MonthlyReportHandler(
	ctx context.Context,
	req httptransport.TreasuryReportRequest,
) (httptransport.TreasuryReportResponse, error) {
	report, err := h.Service.MonthlyReport(ctx, req.Month)
	if err != nil {
		return httptransport.TreasuryReportResponse{}, err
	}
	resp := httptransport.TreasuryReportResponse{Status: "success"}
	resp.Data.Month = report.Month
	resp.Data.Count = report.Count
	resp.Data.TotalIncome = report.TotalIncome
	resp.Data.TotalExpense = report.TotalExpense
	resp.Data.Net = report.Net
	return resp, nil
}

func toDTO(entry ports.LedgerEntry) httptransport.LedgerEntryDTO {
	return httptransport.LedgerEntryDTO{
		EntryID:     entry.EntryID,
		Direction:   entry.Direction,
		Category:    entry.Category,
		Description: entry.Description,
		Amount:      entry.Amount,
		RecordedBy:  entry.RecordedBy,
		OccurredAt:  entry.OccurredAt.UTC().Format(time.RFC3339),
		RecordedAt:  entry.RecordedAt.UTC().Format(time.RFC3339),
	}
}
