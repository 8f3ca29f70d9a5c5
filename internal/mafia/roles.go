package mafia

import (
	"fmt"
	"math/rand/v2"
)

const (
	MinPlayers = 3
	MaxPlayers = 30
)

// CivilianCount is the number of players left without a special role.
func (s Settings) CivilianCount() int {
	return s.TotalPlayers - s.MafiaCount - s.DetectiveCount - s.DoctorCount
}

// Validate checks the settings a host may create a game with.
func (s Settings) Validate() error {
	switch {
	case s.TotalPlayers < MinPlayers || s.TotalPlayers > MaxPlayers:
		return fmt.Errorf("%w: between %d and %d players are needed", ErrInvalidSettings, MinPlayers, MaxPlayers)
	case s.MafiaCount < 1:
		return fmt.Errorf("%w: at least one mafia is needed", ErrInvalidSettings)
	case s.MafiaCount > s.TotalPlayers/3:
		return fmt.Errorf("%w: at most %d mafia for %d players", ErrInvalidSettings, s.TotalPlayers/3, s.TotalPlayers)
	case s.DetectiveCount < 0 || s.DoctorCount < 0:
		return fmt.Errorf("%w: role counts cannot be negative", ErrInvalidSettings)
	case s.CivilianCount() < 1:
		return fmt.Errorf("%w: at least one civilian is needed", ErrInvalidSettings)
	}
	return nil
}

// ShuffleFunc permutes n elements through swap.
type ShuffleFunc func(n int, swap func(i, j int))

// AssignRoles deals exactly MafiaCount Mafia, DetectiveCount Detective and
// DoctorCount Doctor roles, filling the rest with Civilian, and pairs the
// shuffled deck with players in the order given. When the special roles
// outnumber the players the deck is truncated. A nil shuffle uses a uniform
// Fisher-Yates shuffle.
func AssignRoles(players []Player, s Settings, shuffle ShuffleFunc) map[string]Role {
	deck := make([]Role, 0, len(players))
	deal := func(r Role, n int) {
		for i := 0; i < n && len(deck) < len(players); i++ {
			deck = append(deck, r)
		}
	}
	deal(RoleMafia, s.MafiaCount)
	deal(RoleDetective, s.DetectiveCount)
	deal(RoleDoctor, s.DoctorCount)
	deal(RoleCivilian, len(players)-len(deck))

	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	roles := make(map[string]Role, len(players))
	for i, p := range players {
		roles[p.ID] = deck[i]
	}
	return roles
}
