package repository

import (
	"context"
	"fmt"

	"cubedraft/internal/config"
	"cubedraft/internal/sheets"

	"github.com/rs/zerolog"
)

type DirectoryRepository struct {
	rows          sheets.RowAPI
	spreadsheetID string
	logger        zerolog.Logger
}

func NewDirectoryRepository(rows sheets.RowAPI, cfg *config.Config, logger zerolog.Logger) *DirectoryRepository {
	return &DirectoryRepository{rows: rows, spreadsheetID: cfg.SpreadsheetID, logger: logger}
}

// Lookup resolves a user ID to the display name it was first registered
// under. The second return is false when the user has no directory row.
func (r *DirectoryRepository) Lookup(ctx context.Context, userID string) (string, bool, error) {
	raw, err := r.rows.Read(ctx, r.spreadsheetID, directoryTab+"!A2:B", sheets.RenderFormatted)
	if err != nil {
		return "", false, fmt.Errorf("reading player directory: %w", err)
	}
	for _, row := range raw {
		row = padRow(row, len(directoryHeader))
		if row[1] == userID {
			return row[0], true, nil
		}
	}
	return "", false, nil
}

func (r *DirectoryRepository) Register(ctx context.Context, displayName, userID string) error {
	if err := ensureHeader(ctx, r.rows, r.spreadsheetID, directoryTab, directoryHeader); err != nil {
		return err
	}
	if err := r.rows.Append(ctx, r.spreadsheetID, directoryTab+"!A1", [][]string{{displayName, userID}}); err != nil {
		return fmt.Errorf("registering player %s: %w", userID, err)
	}
	return nil
}
