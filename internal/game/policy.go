package game

import "github.com/playperu/mafianight/internal/mafia"

type action string

const (
	actStart     action = "start"
	actEnd       action = "end"
	actSetPhase  action = "set_phase"
	actRemove    action = "remove_player"
	actEliminate action = "eliminate"
	actExpire    action = "expire_phase"
	actVote      action = "vote"
	actNight     action = "night_action"
)

type access int

const (
	signedIn access = iota
	member
	hostOnly
)

// policy is the single table of who may perform which mutation. It is
// evaluated against the session read inside the conditional write.
var policy = map[action]access{
	actStart:     hostOnly,
	actEnd:       hostOnly,
	actSetPhase:  hostOnly,
	actRemove:    hostOnly,
	actEliminate: hostOnly,
	actExpire:    member,
	actVote:      member,
	actNight:     member,
}

func authorize(sess *mafia.Session, caller mafia.Identity, a action) error {
	if caller.ID == "" {
		return mafia.ErrAuthRequired
	}
	switch policy[a] {
	case hostOnly:
		if !sess.IsHost(caller.ID) {
			return mafia.ErrNotHost
		}
	case member:
		if !sess.IsMember(caller.ID) {
			return mafia.ErrPermissionDenied
		}
	}
	return nil
}

func requireStarted(sess *mafia.Session) error {
	if sess.Status != mafia.StatusStarted {
		return mafia.ErrNotStarted
	}
	return nil
}

// requireActor checks that id is a living, role-holding player.
func requireActor(sess *mafia.Session, id string) (mafia.Player, error) {
	p, ok := sess.Players[id]
	switch {
	case !ok || p.IsHost:
		return mafia.Player{}, mafia.ErrNotAPlayer
	case p.Eliminated:
		return mafia.Player{}, mafia.ErrPlayerEliminated
	}
	return p, nil
}
