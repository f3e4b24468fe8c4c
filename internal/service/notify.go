package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cubedraft/internal/chat"
	"cubedraft/internal/config"
	"cubedraft/internal/constants"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type subKey struct {
	userID   string
	queueKey string
}

// NotifyService is the per-user, per-queue opt-in registry. Subscriptions
// live in process memory only; a zero lastNotified means never notified.
type NotifyService struct {
	mu        sync.Mutex
	subs      map[subKey]time.Time
	cooldown  time.Duration
	messenger chat.Messenger
	logger    zerolog.Logger
}

func NewNotifyService(cfg *config.Config, messenger chat.Messenger, logger zerolog.Logger) *NotifyService {
	return &NotifyService{
		subs:      make(map[subKey]time.Time),
		cooldown:  cfg.NotifyCooldown,
		messenger: messenger,
		logger:    logger,
	}
}

// OptIn is idempotent; an existing subscription keeps its cooldown clock.
func (s *NotifyService) OptIn(userID, queueKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := subKey{userID, queueKey}
	if _, ok := s.subs[k]; !ok {
		s.subs[k] = time.Time{}
	}
}

func (s *NotifyService) OptOut(userID, queueKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := subKey{userID, queueKey}
	if _, ok := s.subs[k]; !ok {
		return false
	}
	delete(s.subs, k)
	return true
}

func (s *NotifyService) CanNotify(userID, queueKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canNotifyLocked(subKey{userID, queueKey})
}

func (s *NotifyService) canNotifyLocked(k subKey) bool {
	last, ok := s.subs[k]
	if !ok {
		return false
	}
	return last.IsZero() || time.Since(last) >= s.cooldown
}

func (s *NotifyService) MarkNotified(userID, queueKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[subKey{userID, queueKey}] = time.Now()
}

// ResetTimer clears the cooldown so the next eligible notification sends
// immediately. Returns false when the user is not subscribed.
func (s *NotifyService) ResetTimer(userID, queueKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := subKey{userID, queueKey}
	if _, ok := s.subs[k]; !ok {
		return false
	}
	s.subs[k] = time.Time{}
	return true
}

// NotifyEligible sends a queue-activity ping to every subscriber whose
// cooldown has elapsed. A failed delivery is logged and skipped; it neither
// aborts the batch nor burns the recipient's cooldown.
func (s *NotifyService) NotifyEligible(ctx context.Context, queueKey string, currentCount int) {
	s.mu.Lock()
	var eligible []string
	for k := range s.subs {
		if k.queueKey == queueKey && s.canNotifyLocked(k) {
			eligible = append(eligible, k.userID)
		}
	}
	s.mu.Unlock()

	if len(eligible) == 0 {
		return
	}

	text := fmt.Sprintf("Queue %q is filling up: %d/%d players. Join now!", queueKey, currentCount, constants.PodSize)

	g := new(errgroup.Group)
	for _, userID := range eligible {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
			defer cancel()

			if _, err := s.messenger.SendDirect(sendCtx, userID, text); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID).Str("queue", queueKey).Msg("queue notification failed")
				return nil
			}
			s.MarkNotified(userID, queueKey)
			return nil
		})
	}
	_ = g.Wait()
}
