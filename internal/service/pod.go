package service

import (
	"context"

	"cubedraft/internal/domain"
	"cubedraft/internal/repository"

	"github.com/rs/zerolog"
)

// PodService is the hand-off seam between the queue engine and durable
// state: when a queue reaches capacity it logs the pod, registers its
// members, and opens the bracket.
type PodService struct {
	podLog    *repository.PodLogRepository
	directory *DirectoryService
	bracket   *BracketService
	logger    zerolog.Logger
}

func NewPodService(
	podLog *repository.PodLogRepository,
	directory *DirectoryService,
	bracket *BracketService,
	logger zerolog.Logger,
) *PodService {
	return &PodService{podLog: podLog, directory: directory, bracket: bracket, logger: logger}
}

// NameUsed reports whether the pod name already appears in the durable log.
// A logged name can never back a new queue.
func (s *PodService) NameUsed(ctx context.Context, podName string) (bool, error) {
	return s.podLog.NameUsed(ctx, podName)
}

// Materialize turns a full queue into a pod: resolves display names, keeps
// the directory current, logs the pod and creates round 1. Registration
// failures are absorbed; the pod log and bracket writes are not.
func (s *PodService) Materialize(ctx context.Context, podName string, memberIDs []string) error {
	members := make([]domain.DirectoryEntry, 0, len(memberIDs))
	for _, userID := range memberIDs {
		name := s.directory.DisplayName(ctx, userID)
		if err := s.directory.EnsureRegistered(ctx, name, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("directory registration failed")
		}
		members = append(members, domain.DirectoryEntry{Name: name, UserID: userID})
	}

	if err := s.podLog.LogPod(ctx, podName, members); err != nil {
		return err
	}
	if err := s.bracket.CreateRound1(ctx, podName, memberIDs); err != nil {
		return err
	}

	s.logger.Info().Str("pod", podName).Int("members", len(memberIDs)).Msg("pod materialized")
	return nil
}
