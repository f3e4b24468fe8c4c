package repository

import (
	"context"
	"fmt"

	"cubedraft/internal/sheets"
)

// Tab names and header rows for the four backing tables. The first header
// cell doubles as the marker used to detect whether a header is present.
var (
	podLogTab    = "PodLog"
	podLogHeader = []string{"Name", "Discord ID", "Pod Name"}

	bracketTab    = "Bracket"
	bracketHeader = []string{"Pod", "Round", "Match", "Player 1", "Player 2", "Winner", "Result"}

	matchLogTab    = "MatchLog"
	matchLogHeader = []string{"Winner", "Loser", "Result", "Pod", "Bot Handled"}

	directoryTab    = "PlayerDirectory"
	directoryHeader = []string{"Name", "Discord ID"}
)

// ensureHeader inserts the header row if the tab's first cell does not carry
// the expected text. Sheets created by hand usually have it already; fresh
// tabs get it on first write.
func ensureHeader(ctx context.Context, rows sheets.RowAPI, spreadsheetID, tab string, header []string) error {
	got, err := rows.Read(ctx, spreadsheetID, tab+"!A1:A1", sheets.RenderFormatted)
	if err != nil {
		return fmt.Errorf("checking %s header: %w", tab, err)
	}
	if len(got) > 0 && len(got[0]) > 0 && got[0][0] == header[0] {
		return nil
	}
	if err := rows.Overwrite(ctx, spreadsheetID, tab+"!A1", [][]string{header}); err != nil {
		return fmt.Errorf("writing %s header: %w", tab, err)
	}
	return nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
