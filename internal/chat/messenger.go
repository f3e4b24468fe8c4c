package chat

import (
	"context"
	"time"
)

// Messenger is the outbound messaging surface the engines depend on.
// SendDirect returns the direct-message channel ID so a reply can be
// collected from the same conversation.
type Messenger interface {
	SendDirect(ctx context.Context, userID, text string) (channelID string, err error)
	SendToChannel(ctx context.Context, channelID, text string) error

	// CollectOneReply waits for the first message in the channel authored by
	// userID for which accept returns true. The second return is false when
	// the window elapses without a qualifying reply.
	CollectOneReply(ctx context.Context, channelID, userID string, accept func(content string) bool, timeout time.Duration) (string, bool)
}

// Identity resolves display names when the player directory has no entry.
type Identity interface {
	FetchDisplayName(ctx context.Context, userID string) (string, error)
}
