package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cubedraft/internal/chat"
	"cubedraft/internal/config"
	"cubedraft/internal/constants"
	"cubedraft/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// PodSink receives a queue once it reaches capacity. Implemented by
// PodService; tests substitute a fake.
type PodSink interface {
	NameUsed(ctx context.Context, podName string) (bool, error)
	Materialize(ctx context.Context, podName string, memberIDs []string) error
}

type participant struct {
	userID   string
	joinedAt time.Time

	// One armed timer at most. The token is regenerated on every (re)arm so
	// a callback that fires after the participant left or rearmed can detect
	// it is stale and bail out.
	timer      *time.Timer
	timerKind  domain.TimerKind
	timerToken string
}

type queueState struct {
	key          string
	participants map[string]*participant
}

// QueueService is the in-memory draft queue state machine. Queues are
// volatile: they live for the process lifetime only and are destroyed when
// empty or when they fill and hand off to the pod sink.
type QueueService struct {
	mu     sync.Mutex
	queues map[string]*queueState

	pods      PodSink
	messenger chat.Messenger
	cfg       *config.Config
	logger    zerolog.Logger
}

func NewQueueService(pods PodSink, messenger chat.Messenger, cfg *config.Config, logger zerolog.Logger) *QueueService {
	return &QueueService{
		queues:    make(map[string]*queueState),
		pods:      pods,
		messenger: messenger,
		cfg:       cfg,
		logger:    logger,
	}
}

// Join adds the user to the queue, creating it on first join. An expiryHours
// inside 1-12 arms a queue-expiry timer instead of the default inactivity
// reminder. Returns the queue's player count after the join; a count of
// PodSize means the queue just materialized into a pod.
func (s *QueueService) Join(ctx context.Context, queueKey, userID string, expiryHours int) (int, error) {
	s.mu.Lock()
	_, exists := s.queues[queueKey]
	s.mu.Unlock()

	if !exists {
		// Pod names are permanent in the durable log; a used name cannot
		// back a new queue.
		used, err := s.pods.NameUsed(ctx, queueKey)
		if err != nil {
			return 0, fmt.Errorf("checking pod name %q: %w", queueKey, err)
		}
		if used {
			return 0, domain.Validationf("the name %q was already used by a finished pod, pick another", queueKey)
		}
	}

	s.mu.Lock()
	q, ok := s.queues[queueKey]
	if !ok {
		q = &queueState{key: queueKey, participants: make(map[string]*participant)}
		s.queues[queueKey] = q
	}
	if _, member := q.participants[userID]; member {
		s.mu.Unlock()
		return 0, domain.Validationf("you are already in queue %q", queueKey)
	}

	p := &participant{
		userID:   userID,
		joinedAt: time.Now(),
	}
	q.participants[userID] = p
	s.armTimerLocked(q.key, p, expiryHours)

	count := len(q.participants)
	var members []string
	if count == constants.PodSize {
		for id := range q.participants {
			members = append(members, id)
		}
		sort.Strings(members)
		s.closeLocked(q)
	}
	s.mu.Unlock()

	s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Int("count", count).Msg("player joined queue")

	if members != nil {
		if err := s.pods.Materialize(ctx, queueKey, members); err != nil {
			return count, fmt.Errorf("materializing pod %q: %w", queueKey, err)
		}
	}
	return count, nil
}

// Leave removes the user, cancelling any armed timer. An emptied queue is
// deleted.
func (s *QueueService) Leave(ctx context.Context, queueKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[queueKey]
	if !ok {
		return domain.Validationf("there is no queue named %q", queueKey)
	}
	if _, member := q.participants[userID]; !member {
		return domain.Validationf("you are not in queue %q", queueKey)
	}

	s.removeLocked(q, userID)
	s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Msg("player left queue")
	return nil
}

func (s *QueueService) PlayerCount(queueKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queueKey]
	if !ok {
		return 0
	}
	return len(q.participants)
}

// ListActive returns every live queue and its player count, sorted by key.
func (s *QueueService) ListActive() []domain.QueueInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]domain.QueueInfo, 0, len(s.queues))
	for key, q := range s.queues {
		infos = append(infos, domain.QueueInfo{Key: key, Count: len(q.participants)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// Close cancels every participant's timer and deletes the queue.
func (s *QueueService) Close(queueKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[queueKey]; ok {
		s.closeLocked(q)
	}
}

func (s *QueueService) closeLocked(q *queueState) {
	for _, p := range q.participants {
		s.cancelTimerLocked(p)
	}
	delete(s.queues, q.key)
}

// removeLocked drops one participant and deletes the queue if it empties.
func (s *QueueService) removeLocked(q *queueState, userID string) {
	if p, ok := q.participants[userID]; ok {
		s.cancelTimerLocked(p)
		delete(q.participants, userID)
	}
	if len(q.participants) == 0 {
		delete(s.queues, q.key)
	}
}

func (s *QueueService) cancelTimerLocked(p *participant) {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.timerKind = domain.TimerNone
	p.timerToken = ""
}

// armTimerLocked arms exactly one timer for a fresh participant: a
// queue-expiry timer when expiryHours is in range, the inactivity reminder
// otherwise.
func (s *QueueService) armTimerLocked(queueKey string, p *participant, expiryHours int) {
	token := gonanoid.Must()
	p.timerToken = token

	if expiryHours >= constants.MinExpiryHours && expiryHours <= constants.MaxExpiryHours {
		p.timerKind = domain.TimerExpiry
		p.timer = time.AfterFunc(time.Duration(expiryHours)*s.hourScale(), func() {
			s.onExpiry(queueKey, p.userID, token)
		})
		return
	}

	p.timerKind = domain.TimerReminder
	p.timer = time.AfterFunc(s.cfg.ReminderDelay, func() {
		s.onReminder(queueKey, p.userID, token)
	})
}

// hourScale is the duration of one "expiry hour". Shrunk in tests.
func (s *QueueService) hourScale() time.Duration {
	if s.cfg.ExpiryHourScale > 0 {
		return s.cfg.ExpiryHourScale
	}
	return time.Hour
}

// current reports whether the participant is still a member with this exact
// timer generation. False means the callback is stale: the player left,
// rearmed, or the queue closed.
func (s *QueueService) current(queueKey, userID, token string) bool {
	q, ok := s.queues[queueKey]
	if !ok {
		return false
	}
	p, ok := q.participants[userID]
	return ok && p.timerToken == token
}

// onExpiry fires when an opt-in queue-expiry timer elapses. A queue that
// reached capacity no longer exists here, so the capacity no-op falls out of
// the membership check.
func (s *QueueService) onExpiry(queueKey, userID, token string) {
	s.mu.Lock()
	if !s.current(queueKey, userID, token) {
		s.mu.Unlock()
		return
	}
	s.removeLocked(s.queues[queueKey], userID)
	s.mu.Unlock()

	s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Msg("queue time expired, player removed")
	s.tellRemoved(userID, fmt.Sprintf("Your time in queue %q ran out and you have been removed.", queueKey))
}

// onReminder fires the inactivity confirmation flow: prompt the player (DM
// preferred, channel fallback), then wait out a bounded response window for
// a stay or leave token. Silence removes the player.
func (s *QueueService) onReminder(queueKey, userID, token string) {
	s.mu.Lock()
	if !s.current(queueKey, userID, token) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx := context.Background()
	prompt := fmt.Sprintf("Are you still up for queue %q? Reply %s to stay or %s to drop. You have %s.",
		queueKey, constants.StayToken, constants.LeaveToken, s.cfg.ResponseWindow)

	sendCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	channelID, err := s.messenger.SendDirect(sendCtx, userID, prompt)
	cancel()
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("reminder DM failed, falling back to channel")
		channelID = s.cfg.FallbackChannelID
		sendCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		if err := s.messenger.SendToChannel(sendCtx, channelID, fmt.Sprintf("<@%s> %s", userID, prompt)); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("reminder channel fallback failed")
		}
		cancel()
	}

	reply, ok := s.messenger.CollectOneReply(ctx, channelID, userID, func(content string) bool {
		return content == constants.StayToken || content == constants.LeaveToken
	}, s.cfg.ResponseWindow)

	s.mu.Lock()
	if !s.current(queueKey, userID, token) {
		// Left or rearmed while we were waiting; nothing to do.
		s.mu.Unlock()
		return
	}

	if ok && reply == constants.StayToken {
		p := s.queues[queueKey].participants[userID]
		s.armTimerLocked(queueKey, p, 0)
		s.mu.Unlock()
		s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Msg("player confirmed, reminder rearmed")
		return
	}

	s.removeLocked(s.queues[queueKey], userID)
	s.mu.Unlock()

	if ok {
		s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Msg("player chose to leave queue")
		s.tellRemoved(userID, fmt.Sprintf("You have been removed from queue %q.", queueKey))
	} else {
		s.logger.Info().Str("queue", queueKey).Str("user_id", userID).Msg("no confirmation, player removed for inactivity")
		s.tellRemoved(userID, fmt.Sprintf("No response received; you were removed from queue %q for inactivity.", queueKey))
	}
}

// tellRemoved is best effort; a failed DM never blocks a removal.
func (s *QueueService) tellRemoved(userID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ExternalAPITimeout)
	defer cancel()
	if _, err := s.messenger.SendDirect(ctx, userID, text); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("removal notice failed")
	}
}
