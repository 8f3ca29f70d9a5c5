package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/store"
)

// CreateSession stores a new waiting session hosted by caller and returns
// its code. A code is drawn up to codeAttempts times; the create-write is
// what makes it definitive.
func (s *Service) CreateSession(ctx context.Context, caller mafia.Identity, settings mafia.Settings) (string, error) {
	if err := requireIdentity(caller); err != nil {
		return "", err
	}
	if err := settings.Validate(); err != nil {
		return "", err
	}

	for range s.codeAttempts {
		code := s.newCode()

		_, err := s.store.Get(ctx, code)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("checking code %s: %w", code, err)
		}

		sess := mafia.NewSession(code, caller, settings, s.now())
		err = s.store.Create(ctx, sess)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating session %s: %w", code, err)
		}

		s.logger.Info("session created", "code", code, "host_id", caller.ID)
		return code, nil
	}

	s.logger.Warn("code generation exhausted", "attempts", s.codeAttempts)
	return "", mafia.ErrCodeGenerationExhausted
}

// JoinSession adds caller to a waiting session and returns the session as
// committed with the new player.
func (s *Service) JoinSession(ctx context.Context, code string, caller mafia.Identity) (*mafia.Session, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	now := s.now()
	sess, err := s.mutate(ctx, code, func(sess *mafia.Session) error {
		switch {
		case sess.Status != mafia.StatusWaiting:
			return mafia.ErrAlreadyStarted
		case sess.IsHost(caller.ID):
			return mafia.ErrCannotJoinOwnSession
		case sess.IsMember(caller.ID):
			return mafia.ErrAlreadyJoined
		case sess.PlayerCount() >= sess.Settings.TotalPlayers:
			return mafia.ErrSessionFull
		}
		sess.Players[caller.ID] = mafia.Player{
			ID:       caller.ID,
			Name:     caller.DisplayName,
			JoinedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player joined", "code", code, "user_id", caller.ID, "players", sess.PlayerCount())
	return sess, nil
}

// LeaveSession removes caller from the session. The host leaving a waiting
// session deletes it; the host leaving a running game ends it. Leaving a
// session that is gone, ended, or that caller is not in does nothing, and a
// session found past its ttl is ended with reason timeout instead.
func (s *Service) LeaveSession(ctx context.Context, code string, caller mafia.Identity) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	return s.removePlayer(ctx, code, caller, caller.ID)
}

// RemovePlayer lets the host evict a player, with the same effect as that
// player leaving.
func (s *Service) RemovePlayer(ctx context.Context, code string, caller mafia.Identity, playerID string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if playerID == "" || playerID == caller.ID {
		return mafia.ErrInvalidTarget
	}
	return s.removePlayer(ctx, code, caller, playerID)
}

func (s *Service) removePlayer(ctx context.Context, code string, caller mafia.Identity, playerID string) error {
	forced := caller.ID != playerID
	now := s.now()

	var ended, removed, expired bool
	var leaver *mafia.Player
	sess, err := s.store.Update(ctx, code, func(sess *mafia.Session) error {
		ended, removed, expired, leaver = false, false, false, nil

		if forced {
			if err := authorize(sess, caller, actRemove); err != nil {
				return err
			}
			if sess.Status == mafia.StatusEnded {
				return mafia.ErrSessionEnded
			}
		}
		if sess.Status != mafia.StatusEnded && sess.Expired(now, s.ttl) {
			expired = true
			if forced {
				return mafia.ErrSessionEnded
			}
			return store.ErrUnchanged
		}
		if sess.Status == mafia.StatusEnded || !sess.IsMember(playerID) {
			return store.ErrUnchanged
		}

		if sess.IsHost(playerID) {
			if sess.Status == mafia.StatusWaiting {
				removed = true
				return store.ErrRemove
			}
			sess.Winner = sess.DetectWinner()
			ended = sess.End(mafia.EndReasonHostEnded, now)
			return nil
		}

		p := sess.Players[playerID]
		leaver = &p
		delete(sess.Players, playerID)
		delete(sess.Votes.Mafia, playerID)
		delete(sess.Votes.Civilian, playerID)
		delete(sess.ProtectedPlayers, playerID)
		delete(sess.InvestigationResults, playerID)
		sess.EliminatedPlayers = slices.DeleteFunc(sess.EliminatedPlayers, func(id string) bool { return id == playerID })
		if sess.PlayerCount() == 0 {
			removed = true
			return store.ErrRemove
		}

		if sess.Status == mafia.StatusStarted {
			sess.Winner = sess.DetectWinner()
			if s.autoEnd && sess.Winner != "" {
				ended = sess.End(mafia.EndReasonHostEnded, now)
			}
		}
		return nil
	})
	if expired {
		if _, _, xerr := s.expire(ctx, code); xerr != nil {
			s.logger.Error("expiring session", "code", code, "error", xerr)
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		if forced {
			return mafia.ErrSessionNotFound
		}
		return nil
	}
	if err != nil {
		return err
	}

	if leaver != nil {
		s.logger.Info("player left", "code", code, "user_id", playerID, "forced", forced)
		// A dealt player who walks out of a running game still played it.
		if leaver.Role != "" {
			s.recordResult(ctx, code, *leaver, "")
		}
	}
	switch {
	case removed:
		s.logger.Info("session deleted", "code", code, "last_user_id", playerID)
	case ended:
		s.logger.Info("session ended",
			"code", code,
			"reason", mafia.EndReasonHostEnded,
			"host_left", leaver == nil,
			"winner", sess.Winner,
		)
		s.recordResults(ctx, sess)
	}
	return nil
}

// ListSessionsForUser returns every session userID hosts or plays in,
// newest first. It scans all sessions.
func (s *Service) ListSessionsForUser(ctx context.Context, userID string) ([]*mafia.Session, error) {
	if userID == "" {
		return nil, mafia.ErrAuthRequired
	}

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	out := make([]*mafia.Session, 0)
	for _, sess := range all {
		if sess.HostID == userID || sess.IsMember(userID) {
			out = append(out, s.lazyExpire(ctx, sess))
		}
	}
	return out, nil
}
