package mafia

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// NewSession builds a waiting session with the host as its only player.
func NewSession(code string, host Identity, settings Settings, now time.Time) *Session {
	return &Session{
		Code:      code,
		HostID:    host.ID,
		HostName:  host.DisplayName,
		Status:    StatusWaiting,
		CreatedAt: now,
		Settings:  settings,
		Players: map[string]Player{
			host.ID: {ID: host.ID, Name: host.DisplayName, IsHost: true, JoinedAt: now},
		},
		EliminatedPlayers:    []string{},
		Votes:                Votes{Mafia: map[string]string{}, Civilian: map[string]string{}},
		InvestigationResults: map[string]Investigation{},
		ProtectedPlayers:     map[string]string{},
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.StartedAt = clonePtr(s.StartedAt)
	c.EndedAt = clonePtr(s.EndedAt)
	c.PhaseEndsAt = clonePtr(s.PhaseEndsAt)
	c.Players = maps.Clone(s.Players)
	c.EliminatedPlayers = slices.Clone(s.EliminatedPlayers)
	c.Votes = Votes{Mafia: maps.Clone(s.Votes.Mafia), Civilian: maps.Clone(s.Votes.Civilian)}
	c.InvestigationResults = maps.Clone(s.InvestigationResults)
	c.ProtectedPlayers = maps.Clone(s.ProtectedPlayers)
	if s.LastPhase != nil {
		lp := *s.LastPhase
		lp.MafiaTally = maps.Clone(lp.MafiaTally)
		lp.CivilianTally = maps.Clone(lp.CivilianTally)
		lp.Protected = slices.Clone(lp.Protected)
		c.LastPhase = &lp
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *Session) IsHost(userID string) bool {
	return userID != "" && s.HostID == userID
}

// IsMember reports whether userID is the host or a joined player.
func (s *Session) IsMember(userID string) bool {
	_, ok := s.Players[userID]
	return ok
}

// NonHostPlayers returns the joined players ordered by join time.
func (s *Session) NonHostPlayers() []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsHost {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// PlayerCount is the number of joined players, excluding the host.
func (s *Session) PlayerCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.IsHost {
			n++
		}
	}
	return n
}

// Alive reports whether id is a non-host player who has not been eliminated.
func (s *Session) Alive(id string) bool {
	p, ok := s.Players[id]
	return ok && !p.IsHost && !p.Eliminated
}

// Eliminate marks the player as out of the game. It reports false when the
// player was not alive.
func (s *Session) Eliminate(id string) bool {
	if !s.Alive(id) {
		return false
	}
	p := s.Players[id]
	p.Eliminated = true
	s.Players[id] = p
	s.EliminatedPlayers = append(s.EliminatedPlayers, id)
	return true
}

// Expired reports whether ttl has elapsed since the session was created.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) >= ttl
}

// End moves the session to ended. It reports false if it already was.
func (s *Session) End(reason EndReason, now time.Time) bool {
	if s.Status == StatusEnded {
		return false
	}
	s.Status = StatusEnded
	s.EndedAt = &now
	s.EndReason = reason
	s.PhaseEndsAt = nil
	return true
}

// DetectWinner reports the faction that has won: town once every Mafia is
// eliminated, mafia once living Mafia are at least as many as everyone else
// alive. It returns "" while the game is undecided or roles are not dealt.
func (s *Session) DetectWinner() Faction {
	if s.Status == StatusWaiting {
		return ""
	}
	mafia, town := 0, 0
	for _, p := range s.Players {
		if p.IsHost || p.Eliminated || p.Role == "" {
			continue
		}
		if p.Role == RoleMafia {
			mafia++
		} else {
			town++
		}
	}
	switch {
	case mafia == 0 && town == 0:
		return ""
	case mafia == 0:
		return FactionTown
	case mafia >= town:
		return FactionMafia
	}
	return ""
}

// FactionOf returns the side a role plays for.
func FactionOf(r Role) Faction {
	if r == RoleMafia {
		return FactionMafia
	}
	return FactionTown
}

// Tally counts votes per target.
func Tally(votes map[string]string) map[string]int {
	if len(votes) == 0 {
		return nil
	}
	t := make(map[string]int, len(votes))
	for _, target := range votes {
		t[target]++
	}
	return t
}

// Leader returns the target with the most votes, or "" on a tie or no votes.
func Leader(tally map[string]int) string {
	best, bestN, tied := "", 0, false
	for target, n := range tally {
		switch {
		case n > bestN:
			best, bestN, tied = target, n, false
		case n == bestN:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}

func protectedTargets(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, target := range m {
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	slices.Sort(out)
	return out
}
