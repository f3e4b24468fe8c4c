package domain

type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerReminder
	TimerExpiry
)

type QueueInfo struct {
	Key   string
	Count int
}

type MatchupRow struct {
	PodName string
	Round   int // 1..3
	Match   int // 1..12
	PlayerA string
	PlayerB string
	Winner  string // empty until reported
	Result  string // "2-0" or "2-1", empty until reported

	// SheetRow is the 1-based spreadsheet row this record was read from,
	// used to overwrite the winner/result cells in place.
	SheetRow int
}

// Resolved reports whether the match has a recorded winner.
func (m MatchupRow) Resolved() bool {
	return m.Winner != ""
}

// Pairs reports whether the row's two players are exactly the given
// unordered pair.
func (m MatchupRow) Pairs(a, b string) bool {
	return (m.PlayerA == a && m.PlayerB == b) || (m.PlayerA == b && m.PlayerB == a)
}

type MatchReport struct {
	PodName  string
	WinnerID string
	LoserID  string
	Result   string
}

type MatchStatus struct {
	Match   int
	PlayerA string
	PlayerB string
	Done    bool
	Winner  string
	Result  string
}

type BracketStatus struct {
	PodName  string
	Round    int
	Complete bool
	Matches  []MatchStatus
}

type DirectoryEntry struct {
	Name   string
	UserID string
}
