package game

import (
	"context"

	"github.com/playperu/mafianight/internal/mafia"
)

// SubmitVote records caller's vote in pool, replacing any earlier vote.
// Mafia votes are cast at night by living Mafia; civilian votes are cast
// during voting by any living player.
func (s *Service) SubmitVote(ctx context.Context, code string, caller mafia.Identity, targetID string, pool mafia.VotePool) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	_, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		voter, err := s.actor(sess, caller, actVote)
		if err != nil {
			return err
		}

		var votes map[string]string
		switch pool {
		case mafia.PoolMafia:
			if voter.Role != mafia.RoleMafia {
				return mafia.ErrWrongRole
			}
			if sess.CurrentPhase != mafia.PhaseNight {
				return mafia.ErrInvalidPhase
			}
			votes = sess.Votes.Mafia
		case mafia.PoolCivilian:
			if sess.CurrentPhase != mafia.PhaseVoting {
				return mafia.ErrInvalidPhase
			}
			votes = sess.Votes.Civilian
		default:
			return mafia.ErrInvalidVotePool
		}

		if targetID == caller.ID || !sess.Alive(targetID) {
			return mafia.ErrInvalidTarget
		}
		votes[caller.ID] = targetID
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("vote recorded", "code", code, "pool", pool, "voter_id", caller.ID)
	return nil
}

// Investigate reveals to a Detective whether the target is Mafia and keeps
// the result for them.
func (s *Service) Investigate(ctx context.Context, code string, caller mafia.Identity, targetID string) (bool, error) {
	if err := requireIdentity(caller); err != nil {
		return false, err
	}

	now := s.now()
	var isMafia bool
	_, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		if err := s.nightAction(sess, caller, mafia.RoleDetective); err != nil {
			return err
		}
		if targetID == caller.ID || !sess.Alive(targetID) {
			return mafia.ErrInvalidTarget
		}

		isMafia = sess.Players[targetID].Role == mafia.RoleMafia
		sess.InvestigationResults[caller.ID] = mafia.Investigation{
			TargetID:       targetID,
			IsMafia:        isMafia,
			InvestigatedAt: now,
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return isMafia, nil
}

// Protect records a Doctor's protection for the current night. It does not
// itself prevent an elimination; the host resolves the night.
func (s *Service) Protect(ctx context.Context, code string, caller mafia.Identity, targetID string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	_, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		if err := s.nightAction(sess, caller, mafia.RoleDoctor); err != nil {
			return err
		}
		if !sess.Alive(targetID) {
			return mafia.ErrInvalidTarget
		}
		sess.ProtectedPlayers[caller.ID] = targetID
		return nil
	})
	return err
}

// EliminatePlayer is the host's manual resolution of a vote or a night.
// The winner is recomputed afterwards and, with auto-end on, a decided game
// ends on the host's behalf.
func (s *Service) EliminatePlayer(ctx context.Context, code string, caller mafia.Identity, playerID string) (*mafia.Session, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	now := s.now()
	ended := false
	sess, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		ended = false
		if err := authorize(sess, caller, actEliminate); err != nil {
			return err
		}
		if err := requireStarted(sess); err != nil {
			return err
		}
		if !sess.Eliminate(playerID) {
			return mafia.ErrInvalidTarget
		}

		sess.Winner = sess.DetectWinner()
		if s.autoEnd && sess.Winner != "" {
			ended = sess.End(mafia.EndReasonHostEnded, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player eliminated", "code", code, "player_id", playerID, "winner", sess.Winner)
	if ended {
		s.logger.Info("session ended", "code", code, "reason", mafia.EndReasonHostEnded, "winner", sess.Winner)
		s.recordResults(ctx, sess)
	}
	return sess, nil
}

func (s *Service) actor(sess *mafia.Session, caller mafia.Identity, act action) (mafia.Player, error) {
	if err := authorize(sess, caller, act); err != nil {
		return mafia.Player{}, err
	}
	if err := requireStarted(sess); err != nil {
		return mafia.Player{}, err
	}
	return requireActor(sess, caller.ID)
}

func (s *Service) nightAction(sess *mafia.Session, caller mafia.Identity, role mafia.Role) error {
	p, err := s.actor(sess, caller, actNight)
	if err != nil {
		return err
	}
	if p.Role != role {
		return mafia.ErrWrongRole
	}
	if sess.CurrentPhase != mafia.PhaseNight {
		return mafia.ErrInvalidPhase
	}
	return nil
}
