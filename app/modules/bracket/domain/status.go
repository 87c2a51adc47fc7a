package bracketdomain

import "time"

// DeadlineGrace is how long before a round's first tip picks lock.
const DeadlineGrace = 5 * time.Minute

type RoundStatus string

const (
	RoundPre      RoundStatus = "pre_round"
	RoundLive     RoundStatus = "round_live"
	RoundComplete RoundStatus = "round_complete"
)

type TournamentStatus string

const (
	TournamentPre      TournamentStatus = "pre_tournament"
	TournamentLive     TournamentStatus = "tournament_live"
	TournamentComplete TournamentStatus = "tournament_complete"
)

// StatusCounts is the number of a round's games in each status.
type StatusCounts struct {
	Scheduled  int
	InProgress int
	Final      int
}

func (c StatusCounts) Total() int { return c.Scheduled + c.InProgress + c.Final }

// CountStatuses tallies games by status.
func CountStatuses(games []Game) StatusCounts {
	var c StatusCounts
	for _, g := range games {
		switch g.Status {
		case GameFinal:
			c.Final++
		case GameInProgress:
			c.InProgress++
		default:
			c.Scheduled++
		}
	}
	return c
}

// DeriveRoundStatus computes a round's status from its game counts. A round
// with no games has not started.
func DeriveRoundStatus(c StatusCounts) RoundStatus {
	total := c.Total()
	switch {
	case total == 0 || c.Scheduled == total:
		return RoundPre
	case c.Final == total:
		return RoundComplete
	default:
		return RoundLive
	}
}

// DeriveTournamentStatus computes the tournament status from round statuses
// given in play order.
func DeriveTournamentStatus(rounds []RoundStatus) TournamentStatus {
	if len(rounds) == 0 {
		return TournamentPre
	}
	if rounds[len(rounds)-1] == RoundComplete {
		return TournamentComplete
	}
	for _, s := range rounds {
		if s != RoundPre {
			return TournamentLive
		}
	}
	return TournamentPre
}

// RoundDeadline is the earliest game start minus DeadlineGrace. Games
// without a start time are ignored; false means no deadline is known.
func RoundDeadline(games []Game) (time.Time, bool) {
	var earliest time.Time
	for _, g := range games {
		if g.StartTime.IsZero() {
			continue
		}
		if earliest.IsZero() || g.StartTime.Before(earliest) {
			earliest = g.StartTime
		}
	}
	if earliest.IsZero() {
		return time.Time{}, false
	}
	return earliest.Add(-DeadlineGrace), true
}

// DeadlinePassed reports now >= deadline.
func DeadlinePassed(now, deadline time.Time) bool {
	return !now.Before(deadline)
}

// CanMakePicks reports whether picks for a round with these games are still
// open at now.
func CanMakePicks(now time.Time, games []Game) bool {
	deadline, ok := RoundDeadline(games)
	if !ok {
		return true
	}
	return !DeadlinePassed(now, deadline)
}
