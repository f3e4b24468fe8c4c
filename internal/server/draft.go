package server

import (
	"context"

	"cubedraft/internal/constants"
	"cubedraft/internal/domain"
	"cubedraft/internal/service"
)

// DraftServer is the surface the chat command dispatcher drives. It owns no
// logic of its own; it sequences the engines and keeps notification pings
// flowing on queue activity.
type DraftServer struct {
	queues    *service.QueueService
	bracket   *service.BracketService
	notify    *service.NotifyService
	directory *service.DirectoryService
}

func NewDraftServer(
	queues *service.QueueService,
	bracket *service.BracketService,
	notify *service.NotifyService,
	directory *service.DirectoryService,
) *DraftServer {
	return &DraftServer{queues: queues, bracket: bracket, notify: notify, directory: directory}
}

// Join adds the user to a queue and pings eligible subscribers with the new
// count. expiryHours of 0 selects the default inactivity-reminder path.
func (s *DraftServer) Join(ctx context.Context, queueKey, userID string, expiryHours int) error {
	count, err := s.queues.Join(ctx, queueKey, userID, expiryHours)
	if err != nil {
		return err
	}
	// A full queue already closed and announced its bracket; only ping
	// subscribers while there is still room.
	if count < constants.PodSize {
		s.notify.NotifyEligible(ctx, queueKey, count)
	}
	return nil
}

func (s *DraftServer) Leave(ctx context.Context, queueKey, userID string) error {
	return s.queues.Leave(ctx, queueKey, userID)
}

func (s *DraftServer) ListActive() []domain.QueueInfo {
	return s.queues.ListActive()
}

func (s *DraftServer) ReportMatch(ctx context.Context, podName, winnerID, loserID, result string) error {
	return s.bracket.ReportMatch(ctx, podName, winnerID, loserID, result)
}

func (s *DraftServer) GetStatus(ctx context.Context, podName string) (*domain.BracketStatus, error) {
	return s.bracket.GetStatus(ctx, podName)
}

func (s *DraftServer) OptIn(userID, queueKey string) {
	s.notify.OptIn(userID, queueKey)
}

func (s *DraftServer) OptOut(userID, queueKey string) bool {
	return s.notify.OptOut(userID, queueKey)
}

func (s *DraftServer) ResetNotifyTimer(userID, queueKey string) bool {
	return s.notify.ResetTimer(userID, queueKey)
}

func (s *DraftServer) ResolveName(ctx context.Context, userID string) (string, bool, error) {
	return s.directory.ResolveName(ctx, userID)
}
