package repository

import (
	"context"
	"fmt"

	"cubedraft/internal/config"
	"cubedraft/internal/domain"
	"cubedraft/internal/sheets"

	"github.com/rs/zerolog"
)

type MatchLogRepository struct {
	rows          sheets.RowAPI
	spreadsheetID string
	logger        zerolog.Logger
}

func NewMatchLogRepository(rows sheets.RowAPI, cfg *config.Config, logger zerolog.Logger) *MatchLogRepository {
	return &MatchLogRepository{rows: rows, spreadsheetID: cfg.SpreadsheetID, logger: logger}
}

// AppendReport records a reported match in the durable log. Every row written
// here was handled by the bot, hence the fixed flag column.
func (r *MatchLogRepository) AppendReport(ctx context.Context, report domain.MatchReport) error {
	if err := ensureHeader(ctx, r.rows, r.spreadsheetID, matchLogTab, matchLogHeader); err != nil {
		return err
	}

	row := []string{report.WinnerID, report.LoserID, report.Result, report.PodName, "yes"}
	if err := r.rows.Append(ctx, r.spreadsheetID, matchLogTab+"!A1", [][]string{row}); err != nil {
		return fmt.Errorf("logging match report for %s: %w", report.PodName, err)
	}
	return nil
}
