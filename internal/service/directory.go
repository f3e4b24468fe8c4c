package service

import (
	"context"
	"fmt"

	"cubedraft/internal/chat"
	"cubedraft/internal/repository"

	"github.com/rs/zerolog"
)

type DirectoryService struct {
	repo     *repository.DirectoryRepository
	identity chat.Identity
	logger   zerolog.Logger
}

func NewDirectoryService(repo *repository.DirectoryRepository, identity chat.Identity, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, identity: identity, logger: logger}
}

// ResolveName looks the user up in the durable directory. The second return
// is false when no entry exists.
func (s *DirectoryService) ResolveName(ctx context.Context, userID string) (string, bool, error) {
	return s.repo.Lookup(ctx, userID)
}

// DisplayName resolves a usable display name: directory entry first, then a
// live identity fetch, then a placeholder. Fetch failures are absorbed.
func (s *DirectoryService) DisplayName(ctx context.Context, userID string) string {
	name, found, err := s.repo.Lookup(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("directory lookup failed")
	}
	if found {
		return name
	}

	name, err = s.identity.FetchDisplayName(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("display name fetch failed, using placeholder")
		return fmt.Sprintf("player-%s", userID)
	}
	return name
}

// EnsureRegistered appends a directory row unless the user already has one.
// An existing name is never overwritten, first write wins.
func (s *DirectoryService) EnsureRegistered(ctx context.Context, displayName, userID string) error {
	_, found, err := s.repo.Lookup(ctx, userID)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return s.repo.Register(ctx, displayName, userID)
}
