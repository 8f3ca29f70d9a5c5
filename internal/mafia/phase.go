package mafia

import "time"

var nextPhase = map[Phase]Phase{
	PhasePreparation: PhaseDay,
	PhaseDay:         PhaseVoting,
	PhaseVoting:      PhaseNight,
	PhaseNight:       PhaseResults,
	PhaseResults:     PhaseDay,
}

// Next returns the canonical phase following p. Preparation only opens the
// first lap; results wraps back to day.
func (p Phase) Next() Phase {
	return nextPhase[p]
}

func (p Phase) Valid() bool {
	_, ok := nextPhase[p]
	return ok
}

// PhaseDurations maps each phase to the length of its countdown.
type PhaseDurations map[Phase]time.Duration

func DefaultPhaseDurations() PhaseDurations {
	return PhaseDurations{
		PhasePreparation: 60 * time.Second,
		PhaseDay:         180 * time.Second,
		PhaseVoting:      60 * time.Second,
		PhaseNight:       120 * time.Second,
		PhaseResults:     60 * time.Second,
	}
}

// EnterPhase moves the session to next. The outgoing votes and protections
// are summarised in LastPhase and then reset, and the absolute end of the new
// phase is stored so every client counts down to the same instant.
func (s *Session) EnterPhase(next Phase, now time.Time, d time.Duration) {
	if s.CurrentPhase != "" {
		s.LastPhase = &PhaseSummary{
			Phase:         s.CurrentPhase,
			Round:         s.Round,
			MafiaTally:    Tally(s.Votes.Mafia),
			CivilianTally: Tally(s.Votes.Civilian),
			Protected:     protectedTargets(s.ProtectedPlayers),
		}
	}
	if next == PhaseDay {
		s.Round++
	}

	s.CurrentPhase = next
	ends := now.Add(d)
	s.PhaseEndsAt = &ends
	s.Votes = Votes{Mafia: map[string]string{}, Civilian: map[string]string{}}
	s.ProtectedPlayers = map[string]string{}
}

// PhaseExpired reports whether the current phase countdown has run out.
func (s *Session) PhaseExpired(now time.Time) bool {
	return s.PhaseEndsAt != nil && !now.Before(*s.PhaseEndsAt)
}
