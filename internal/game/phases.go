package game

import (
	"context"

	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/store"
)

// SetPhase lets the host jump to any phase of the cycle. Preparation only
// opens a game and cannot be re-entered.
func (s *Service) SetPhase(ctx context.Context, code string, caller mafia.Identity, phase mafia.Phase) (*mafia.Session, error) {
	if !phase.Valid() {
		return nil, mafia.ErrInvalidPhase
	}
	return s.transition(ctx, code, caller, actSetPhase, func(sess *mafia.Session) (mafia.Phase, error) {
		if phase == mafia.PhasePreparation && sess.CurrentPhase != "" {
			return "", mafia.ErrInvalidPhase
		}
		return phase, nil
	})
}

// AdvancePhase lets the host move to the canonical next phase.
func (s *Service) AdvancePhase(ctx context.Context, code string, caller mafia.Identity) (*mafia.Session, error) {
	return s.transition(ctx, code, caller, actSetPhase, func(sess *mafia.Session) (mafia.Phase, error) {
		return sess.CurrentPhase.Next(), nil
	})
}

// ExpirePhase advances a phase whose countdown has run out. Any member's
// timer may call it; expected names the phase the timer was counting, so
// when several timers fire together only the first advances and the rest
// are no-ops.
func (s *Service) ExpirePhase(ctx context.Context, code string, caller mafia.Identity, expected mafia.Phase) (*mafia.Session, error) {
	now := s.now()
	return s.transition(ctx, code, caller, actExpire, func(sess *mafia.Session) (mafia.Phase, error) {
		if sess.CurrentPhase != expected || !sess.PhaseExpired(now) {
			return "", store.ErrUnchanged
		}
		return sess.CurrentPhase.Next(), nil
	})
}

func (s *Service) transition(
	ctx context.Context,
	code string,
	caller mafia.Identity,
	act action,
	pick func(*mafia.Session) (mafia.Phase, error),
) (*mafia.Session, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	now := s.now()
	var from, to mafia.Phase
	sess, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		if err := authorize(sess, caller, act); err != nil {
			return err
		}
		if err := requireStarted(sess); err != nil {
			return err
		}

		next, err := pick(sess)
		if err != nil {
			return err
		}
		if !next.Valid() {
			return mafia.ErrInvalidPhase
		}

		from, to = sess.CurrentPhase, next
		sess.EnterPhase(next, now, s.phaseDuration(next))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to != "" {
		s.logger.Info("phase changed", "code", code, "from", from, "to", to, "round", sess.Round)
	}
	return sess, nil
}
