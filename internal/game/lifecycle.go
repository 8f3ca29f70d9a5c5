package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/store"
)

// StartSession deals roles to the joined players and opens the preparation
// phase. Roles, status, startedAt and the first phase are one write.
func (s *Service) StartSession(ctx context.Context, code string, caller mafia.Identity) (*mafia.Session, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	now := s.now()
	sess, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		if err := authorize(sess, caller, actStart); err != nil {
			return err
		}
		if sess.Status != mafia.StatusWaiting {
			return mafia.ErrAlreadyStarted
		}

		players := sess.NonHostPlayers()
		if len(players) < sess.Settings.TotalPlayers {
			return mafia.ErrInsufficientPlayers
		}

		roles := mafia.AssignRoles(players, sess.Settings, s.shuffle)
		for id, role := range roles {
			p := sess.Players[id]
			p.Role = role
			sess.Players[id] = p
		}
		sess.Status = mafia.StatusStarted
		sess.StartedAt = &now
		sess.EnterPhase(mafia.PhasePreparation, now, s.phaseDuration(mafia.PhasePreparation))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session started", "code", code, "players", sess.PlayerCount())
	return sess, nil
}

// EndSession ends the game. Only the host may end it with host_ended; a
// timeout end is only accepted once the session has actually expired.
func (s *Service) EndSession(ctx context.Context, code string, caller mafia.Identity, reason mafia.EndReason) (*mafia.Session, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	switch reason {
	case mafia.EndReasonTimeout:
		sess, ended, err := s.expire(ctx, code)
		if err != nil {
			return nil, err
		}
		if !ended && sess.EndReason != mafia.EndReasonTimeout {
			return nil, mafia.ErrPermissionDenied
		}
		return sess, nil
	case mafia.EndReasonHostEnded, "":
	default:
		return nil, mafia.ErrInvalidEndReason
	}

	now := s.now()
	sess, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		if err := authorize(sess, caller, actEnd); err != nil {
			return err
		}
		sess.Winner = sess.DetectWinner()
		sess.End(mafia.EndReasonHostEnded, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session ended", "code", code, "reason", mafia.EndReasonHostEnded)
	s.recordResults(ctx, sess)
	return sess, nil
}

// GetSession reads the session, ending it first if it has expired.
func (s *Service) GetSession(ctx context.Context, code string) (*mafia.Session, error) {
	sess, err := s.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, mafia.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", code, err)
	}
	return s.lazyExpire(ctx, sess), nil
}

// Subscribe delivers the session to fn now and after every change, ending
// it first whenever it is found expired. fn receives nil once the session
// is deleted. Call the returned func to stop; it is safe to call twice.
func (s *Service) Subscribe(ctx context.Context, code string, fn func(*mafia.Session)) func() {
	last := int64(-1)
	return s.store.Subscribe(ctx, code, func(sess *mafia.Session) {
		if sess == nil {
			fn(nil)
			return
		}
		sess = s.lazyExpire(ctx, sess)
		if sess.Version <= last {
			return
		}
		last = sess.Version
		fn(sess)
	})
}

// CheckExpiry reports whether the session has outlived its ttl, ending it
// with reason timeout if it has not ended yet.
func (s *Service) CheckExpiry(ctx context.Context, code string) (bool, error) {
	sess, _, err := s.expire(ctx, code)
	if err != nil {
		return false, err
	}
	return sess.Expired(s.now(), s.ttl), nil
}

// lazyExpire returns sess as it stands after the expiry check. A failed
// expiry write is logged and the prior snapshot returned, to be
// re-evaluated on the next read.
func (s *Service) lazyExpire(ctx context.Context, sess *mafia.Session) *mafia.Session {
	if sess.Status == mafia.StatusEnded || !sess.Expired(s.now(), s.ttl) {
		return sess
	}
	updated, _, err := s.expire(ctx, sess.Code)
	if err != nil {
		s.logger.Warn("lazy expiry failed", "code", sess.Code, "error", err)
		return sess
	}
	return updated
}

// expire performs the timeout transition if it is due. It reports whether
// this call made the transition, so results are recorded exactly once.
func (s *Service) expire(ctx context.Context, code string) (*mafia.Session, bool, error) {
	now := s.now()
	ended := false
	sess, err := s.store.Update(ctx, code, func(sess *mafia.Session) error {
		ended = false
		if sess.Status == mafia.StatusEnded || !sess.Expired(now, s.ttl) {
			return store.ErrUnchanged
		}
		sess.Winner = sess.DetectWinner()
		ended = sess.End(mafia.EndReasonTimeout, now)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, mafia.ErrSessionNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("expiring session %s: %w", code, err)
	}

	if ended {
		s.logger.Info("session ended", "code", code, "reason", mafia.EndReasonTimeout)
		s.recordResults(ctx, sess)
	}
	return sess, ended, nil
}
