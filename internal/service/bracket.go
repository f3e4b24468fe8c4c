package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"cubedraft/internal/chat"
	"cubedraft/internal/config"
	"cubedraft/internal/constants"
	"cubedraft/internal/domain"
	"cubedraft/internal/repository"

	"github.com/rs/zerolog"
)

const finalRound = 3

// BracketService drives the single-elimination bracket: round 1 from a fresh
// pod, winner/loser routing into rounds 2 and 3, and completion detection.
// The row store is re-read on every operation; nothing is cached between
// calls.
type BracketService struct {
	bracket   *repository.BracketRepository
	matchLog  *repository.MatchLogRepository
	messenger chat.Messenger
	announce  string // channel ID, empty disables announcements
	logger    zerolog.Logger
}

func NewBracketService(
	bracket *repository.BracketRepository,
	matchLog *repository.MatchLogRepository,
	messenger chat.Messenger,
	cfg *config.Config,
	logger zerolog.Logger,
) *BracketService {
	return &BracketService{
		bracket:   bracket,
		matchLog:  matchLog,
		messenger: messenger,
		announce:  cfg.AnnounceChannelID,
		logger:    logger,
	}
}

// CreateRound1 shuffles the 8 pod members into matches 1-4 and persists them
// with empty winner columns.
func (s *BracketService) CreateRound1(ctx context.Context, podName string, playerIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if len(playerIDs) != constants.PodSize {
		return domain.Validationf("a pod needs exactly %d players, got %d", constants.PodSize, len(playerIDs))
	}

	shuffled := make([]string, len(playerIDs))
	copy(shuffled, playerIDs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	matchups := make([]domain.MatchupRow, 0, 4)
	for i := 0; i < 4; i++ {
		matchups = append(matchups, domain.MatchupRow{
			PodName: podName,
			Round:   1,
			Match:   i + 1,
			PlayerA: shuffled[2*i],
			PlayerB: shuffled[2*i+1],
		})
	}

	if err := s.bracket.AppendMatchups(ctx, matchups); err != nil {
		return err
	}

	s.logger.Info().Str("pod", podName).Msg("round 1 created")
	s.announcePairings(ctx, podName, 1, matchups)
	return nil
}

// ReportMatch validates a result against the open matchup rows, records it
// in the match log and the bracket, and synthesizes the next round when the
// current one has fully resolved.
func (s *BracketService) ReportMatch(ctx context.Context, podName, winnerID, loserID, result string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if winnerID == loserID {
		return domain.Validationf("winner and loser cannot be the same player")
	}
	if result != "2-0" && result != "2-1" {
		return domain.Validationf("result must be 2-0 or 2-1, got %q", result)
	}

	rows, err := s.bracket.RowsForPod(ctx, podName)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.Validationf("no bracket found for pod %q", podName)
	}

	var open *domain.MatchupRow
	for i := range rows {
		if !rows[i].Resolved() && rows[i].Pairs(winnerID, loserID) {
			open = &rows[i]
			break
		}
	}
	if open == nil {
		return domain.Validationf(
			"no open matchup pairs <@%s> and <@%s> in pod %q; the match may already be reported or the players were never paired",
			winnerID, loserID, podName)
	}

	report := domain.MatchReport{PodName: podName, WinnerID: winnerID, LoserID: loserID, Result: result}
	if err := s.matchLog.AppendReport(ctx, report); err != nil {
		return err
	}
	if err := s.bracket.SetResult(ctx, *open, winnerID, result); err != nil {
		return err
	}

	s.logger.Info().
		Str("pod", podName).
		Int("round", open.Round).
		Int("match", open.Match).
		Str("winner", winnerID).
		Str("result", result).
		Msg("match reported")

	return s.advance(ctx, podName)
}

// advance re-reads the bracket and creates the next round if the current one
// just resolved. Completion of round 3 ends the tournament.
func (s *BracketService) advance(ctx context.Context, podName string) error {
	rows, err := s.bracket.RowsForPod(ctx, podName)
	if err != nil {
		return err
	}
	byRound := groupByRound(rows)

	for round := 1; round < finalRound; round++ {
		current, ok := byRound[round]
		if !ok || !allResolved(current) {
			return nil
		}
		if _, created := byRound[round+1]; created {
			continue
		}

		next := nextRoundMatchups(podName, round, current)
		if err := s.bracket.AppendMatchups(ctx, next); err != nil {
			return err
		}
		s.logger.Info().Str("pod", podName).Int("round", round+1).Msg("next round created")
		s.announcePairings(ctx, podName, round+1, next)
		return nil
	}

	if final, ok := byRound[finalRound]; ok && allResolved(final) {
		s.logger.Info().Str("pod", podName).Msg("tournament complete")
		s.announceText(ctx, fmt.Sprintf("Pod %q has finished all three rounds. Good games!", podName))
	}
	return nil
}

// GetStatus reports each match of the active round: the earliest round with
// an open match, or the highest round once everything has resolved.
func (s *BracketService) GetStatus(ctx context.Context, podName string) (*domain.BracketStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rows, err := s.bracket.RowsForPod(ctx, podName)
	if err != nil {
		return nil, err
	}
	byRound := groupByRound(rows)
	if len(byRound) == 0 {
		return nil, domain.Validationf("no bracket found for pod %q", podName)
	}

	var present []int
	for round := range byRound {
		present = append(present, round)
	}
	sort.Ints(present)

	active := present[len(present)-1]
	for _, round := range present {
		if !allResolved(byRound[round]) {
			active = round
			break
		}
	}

	matches := byRound[active]
	sort.Slice(matches, func(i, j int) bool { return matches[i].Match < matches[j].Match })

	status := &domain.BracketStatus{
		PodName:  podName,
		Round:    active,
		Complete: allResolved(matches),
	}
	for _, m := range matches {
		status.Matches = append(status.Matches, domain.MatchStatus{
			Match:   m.Match,
			PlayerA: m.PlayerA,
			PlayerB: m.PlayerB,
			Done:    m.Resolved(),
			Winner:  m.Winner,
			Result:  m.Result,
		})
	}
	return status, nil
}

// groupByRound buckets rows by round number. A round only counts as present
// with exactly 4 well-formed rows; anything else is treated as absent.
func groupByRound(rows []domain.MatchupRow) map[int][]domain.MatchupRow {
	buckets := make(map[int][]domain.MatchupRow)
	for _, row := range rows {
		buckets[row.Round] = append(buckets[row.Round], row)
	}
	for round, bucket := range buckets {
		if len(bucket) != 4 {
			delete(buckets, round)
		}
	}
	return buckets
}

func allResolved(rows []domain.MatchupRow) bool {
	for _, row := range rows {
		if !row.Resolved() {
			return false
		}
	}
	return true
}

// nextRoundMatchups applies the fixed routing: winners of the first two
// matches meet, winners of the last two meet, and the losers pair the same
// way. Match numbers continue 1-4, 5-8, 9-12.
func nextRoundMatchups(podName string, round int, current []domain.MatchupRow) []domain.MatchupRow {
	sort.Slice(current, func(i, j int) bool { return current[i].Match < current[j].Match })

	winner := func(i int) string { return current[i].Winner }
	loser := func(i int) string {
		if current[i].PlayerA == current[i].Winner {
			return current[i].PlayerB
		}
		return current[i].PlayerA
	}

	base := round * 4
	pairs := [][2]string{
		{winner(0), winner(1)},
		{winner(2), winner(3)},
		{loser(0), loser(1)},
		{loser(2), loser(3)},
	}

	next := make([]domain.MatchupRow, 0, 4)
	for i, p := range pairs {
		next = append(next, domain.MatchupRow{
			PodName: podName,
			Round:   round + 1,
			Match:   base + i + 1,
			PlayerA: p[0],
			PlayerB: p[1],
		})
	}
	return next
}

func (s *BracketService) announcePairings(ctx context.Context, podName string, round int, matchups []domain.MatchupRow) {
	if s.announce == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d pairings for pod %q:\n", round, podName)
	for _, m := range matchups {
		fmt.Fprintf(&b, "Match %d: <@%s> vs <@%s>\n", m.Match, m.PlayerA, m.PlayerB)
	}
	s.announceText(ctx, b.String())
}

func (s *BracketService) announceText(ctx context.Context, text string) {
	if s.announce == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	if err := s.messenger.SendToChannel(sendCtx, s.announce, text); err != nil {
		s.logger.Warn().Err(err).Msg("bracket announcement failed")
	}
}
