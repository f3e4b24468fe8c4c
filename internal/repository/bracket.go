package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cubedraft/internal/config"
	"cubedraft/internal/domain"
	"cubedraft/internal/sheets"

	"github.com/rs/zerolog"
)

type BracketRepository struct {
	rows          sheets.RowAPI
	spreadsheetID string
	logger        zerolog.Logger
}

func NewBracketRepository(rows sheets.RowAPI, cfg *config.Config, logger zerolog.Logger) *BracketRepository {
	return &BracketRepository{rows: rows, spreadsheetID: cfg.SpreadsheetID, logger: logger}
}

// RowsForPod returns every well-formed matchup row for the pod, matched
// case-insensitively on pod name. Rows with a non-numeric round or match
// number are logged and skipped rather than failing the whole read.
func (r *BracketRepository) RowsForPod(ctx context.Context, podName string) ([]domain.MatchupRow, error) {
	raw, err := r.rows.Read(ctx, r.spreadsheetID, bracketTab+"!A2:G", sheets.RenderFormatted)
	if err != nil {
		return nil, fmt.Errorf("reading bracket rows: %w", err)
	}

	var matchups []domain.MatchupRow
	for i, row := range raw {
		row = padRow(row, len(bracketHeader))
		if !strings.EqualFold(row[0], podName) {
			continue
		}

		round, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			r.logger.Warn().Str("pod", podName).Str("round", row[1]).Int("sheet_row", i+2).Msg("skipping matchup row with bad round number")
			continue
		}
		match, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			r.logger.Warn().Str("pod", podName).Str("match", row[2]).Int("sheet_row", i+2).Msg("skipping matchup row with bad match number")
			continue
		}

		matchups = append(matchups, domain.MatchupRow{
			PodName:  row[0],
			Round:    round,
			Match:    match,
			PlayerA:  row[3],
			PlayerB:  row[4],
			Winner:   row[5],
			Result:   row[6],
			SheetRow: i + 2,
		})
	}
	return matchups, nil
}

func (r *BracketRepository) AppendMatchups(ctx context.Context, matchups []domain.MatchupRow) error {
	if err := ensureHeader(ctx, r.rows, r.spreadsheetID, bracketTab, bracketHeader); err != nil {
		return err
	}

	values := make([][]string, len(matchups))
	for i, m := range matchups {
		values[i] = []string{
			m.PodName,
			strconv.Itoa(m.Round),
			strconv.Itoa(m.Match),
			m.PlayerA,
			m.PlayerB,
			m.Winner,
			m.Result,
		}
	}
	if err := r.rows.Append(ctx, r.spreadsheetID, bracketTab+"!A1", values); err != nil {
		return fmt.Errorf("appending matchup rows: %w", err)
	}
	return nil
}

// SetResult writes the winner and result into the matchup's row in place.
func (r *BracketRepository) SetResult(ctx context.Context, matchup domain.MatchupRow, winner, result string) error {
	writeRange := fmt.Sprintf("%s!F%d:G%d", bracketTab, matchup.SheetRow, matchup.SheetRow)
	if err := r.rows.Overwrite(ctx, r.spreadsheetID, writeRange, [][]string{{winner, result}}); err != nil {
		return fmt.Errorf("writing result for %s match %d: %w", matchup.PodName, matchup.Match, err)
	}
	return nil
}
