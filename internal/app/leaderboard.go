package app

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/progression"
)

// LeaderboardService builds classroom scoreboards and pushes live updates.
type LeaderboardService struct {
	students StudentStore
	plays    PlayStore
	hub      *Hub
	relay    BoardRelay
	log      *slog.Logger
	now      func() time.Time
}

func NewLeaderboardService(store Store, hub *Hub, log *slog.Logger) *LeaderboardService {
	return NewLeaderboardServiceWithClock(store, hub, log, time.Now)
}

// NewLeaderboardServiceWithClock is used by tests for a deterministic week boundary.
func NewLeaderboardServiceWithClock(store Store, hub *Hub, log *slog.Logger, now func() time.Time) *LeaderboardService {
	if hub == nil {
		hub = NewHub()
	}
	return &LeaderboardService{students: store, plays: store, hub: hub, log: log, now: now}
}

// Board returns the classroom leaderboard in the requested mode.
func (s *LeaderboardService) Board(ctx context.Context, classroomID string, mode domain.LeaderboardMode) (domain.Leaderboard, error) {
	students, err := s.students.StudentsByClassroom(ctx, classroomID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	now := s.now()
	weekly, err := s.plays.WeeklyScores(ctx, classroomID, domain.StartOfWeek(now))
	if err != nil {
		return domain.Leaderboard{}, err
	}

	return domain.Leaderboard{
		ClassroomID: classroomID,
		Mode:        mode,
		Entries:     rankEntries(students, weekly, mode),
		UpdatedAt:   now,
	}, nil
}

// Subscribe returns a channel receiving the total board of a classroom, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, classroomID string) (<-chan domain.Leaderboard, func(), error) {
	lb, err := s.Board(ctx, classroomID, domain.ModeTotal)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(classroomID, lb)
	return ch, cancel, nil
}

// UseRelay routes score changes through r, whose listeners call Notify on every instance.
func (s *LeaderboardService) UseRelay(r BoardRelay) {
	s.relay = r
}

// Changed signals that a classroom's scores moved. Without a relay, or when the relay
// fails, only this instance's watchers are refreshed.
func (s *LeaderboardService) Changed(ctx context.Context, classroomID string) {
	if s.relay != nil {
		err := s.relay.Announce(ctx, classroomID)
		if err == nil {
			return
		}
		s.log.WarnContext(ctx, "leaderboard relay failed", "classroom", classroomID, "err", err)
	}
	s.Notify(ctx, classroomID)
}

// Notify recomputes and broadcasts the total board when the classroom has watchers.
func (s *LeaderboardService) Notify(ctx context.Context, classroomID string) {
	if !s.hub.HasSubscribers(classroomID) {
		return
	}
	lb, err := s.Board(ctx, classroomID, domain.ModeTotal)
	if err != nil {
		s.log.WarnContext(ctx, "leaderboard refresh failed", "classroom", classroomID, "err", err)
		return
	}
	s.hub.Broadcast(lb)
}

func rankEntries(students []domain.Student, weekly map[string]int, mode domain.LeaderboardMode) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(students))
	for _, st := range students {
		entries = append(entries, domain.LeaderboardEntry{
			StudentID:       st.ID,
			Name:            st.Name,
			Avatar:          st.Avatar,
			Level:           st.Level,
			CumulativeScore: st.CumulativeScore,
			WeeklyScore:     weekly[st.ID],
			Medal:           progression.MedalFor(st.Level),
		})
	}

	switch mode {
	case domain.ModeWeekly:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].WeeklyScore != entries[j].WeeklyScore {
				return entries[i].WeeklyScore > entries[j].WeeklyScore
			}
			return entries[i].Name < entries[j].Name
		})
	case domain.ModeName:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
		return entries
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Level != entries[j].Level {
				return entries[i].Level > entries[j].Level
			}
			if entries[i].CumulativeScore != entries[j].CumulativeScore {
				return entries[i].CumulativeScore > entries[j].CumulativeScore
			}
			return entries[i].Name < entries[j].Name
		})
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
