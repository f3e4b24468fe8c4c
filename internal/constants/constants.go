package constants

import "time"

const (
	// PodSize is the fixed bracket size. The round synthesis formulas in the
	// bracket service assume exactly this many players.
	PodSize = 8

	MinExpiryHours = 1
	MaxExpiryHours = 12
)

const (
	ReminderDelay  = 1 * time.Hour
	ResponseWindow = 5 * time.Minute
	NotifyCooldown = 12 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	SheetsMaxRetries   = 4
	SheetsRetryBackoff = 500 * time.Millisecond
)

const (
	ReplyPollInterval = 2 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	StayToken  = "!stay"
	LeaveToken = "!leave"
)
