package app

import "zoo-quiz-service/internal/domain"

// DefaultDailyGameLimit is the number of quiz games a student may start per day.
const DefaultDailyGameLimit = 2

// SessionLimiter applies the daily game counter and login streak rules.
type SessionLimiter struct {
	DailyLimit int
}

func NewSessionLimiter(dailyLimit int) SessionLimiter {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyGameLimit
	}
	return SessionLimiter{DailyLimit: dailyLimit}
}

// RollOver updates the streak and resets the game counter on a new day.
// It reports whether anything changed and must be persisted.
func (l SessionLimiter) RollOver(state domain.DailyState, today domain.Day) (domain.DailyState, bool) {
	next := state

	switch state.LastStreakDate {
	case today:
	case today.Prev():
		next.StreakCount = state.StreakCount + 1
		next.LastStreakDate = today
	default:
		next.StreakCount = 1
		next.LastStreakDate = today
	}

	if state.LastPlayedDate != today {
		next.GamesPlayedToday = 0
		next.LastPlayedDate = today
	}

	return next, next != state
}

// GamesToday returns the games already started today; a stale date counts as zero.
func (l SessionLimiter) GamesToday(state domain.DailyState, today domain.Day) int {
	if state.LastPlayedDate != today {
		return 0
	}
	return state.GamesPlayedToday
}

func (l SessionLimiter) CanPlay(state domain.DailyState, today domain.Day) bool {
	return l.GamesToday(state, today) < l.DailyLimit
}

func (l SessionLimiter) Remaining(state domain.DailyState, today domain.Day) int {
	remaining := l.DailyLimit - l.GamesToday(state, today)
	if remaining < 0 {
		return 0
	}
	return remaining
}
