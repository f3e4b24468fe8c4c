package repository

import (
	"context"
	"fmt"
	"strings"

	"cubedraft/internal/config"
	"cubedraft/internal/domain"
	"cubedraft/internal/sheets"

	"github.com/rs/zerolog"
)

type PodLogRepository struct {
	rows          sheets.RowAPI
	spreadsheetID string
	logger        zerolog.Logger
}

func NewPodLogRepository(rows sheets.RowAPI, cfg *config.Config, logger zerolog.Logger) *PodLogRepository {
	return &PodLogRepository{rows: rows, spreadsheetID: cfg.SpreadsheetID, logger: logger}
}

// NameUsed reports whether a pod under this name was ever logged. Names are
// compared case-insensitively; a logged name permanently blocks reuse.
func (r *PodLogRepository) NameUsed(ctx context.Context, podName string) (bool, error) {
	raw, err := r.rows.Read(ctx, r.spreadsheetID, podLogTab+"!A2:C", sheets.RenderFormatted)
	if err != nil {
		return false, fmt.Errorf("reading pod log: %w", err)
	}
	for _, row := range raw {
		row = padRow(row, len(podLogHeader))
		if strings.EqualFold(row[2], podName) {
			return true, nil
		}
	}
	return false, nil
}

// LogPod appends one row per member: display name, user ID, pod name.
func (r *PodLogRepository) LogPod(ctx context.Context, podName string, members []domain.DirectoryEntry) error {
	if err := ensureHeader(ctx, r.rows, r.spreadsheetID, podLogTab, podLogHeader); err != nil {
		return err
	}

	values := make([][]string, len(members))
	for i, m := range members {
		values[i] = []string{m.Name, m.UserID, podName}
	}
	if err := r.rows.Append(ctx, r.spreadsheetID, podLogTab+"!A1", values); err != nil {
		return fmt.Errorf("logging pod %s: %w", podName, err)
	}
	return nil
}
