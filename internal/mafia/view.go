package mafia

// ViewFor returns the copy of s that viewerID may see. The host and any
// viewer of an ended game see everything. A player sees their own role, the
// roles of eliminated players, and fellow Mafia if they are Mafia. Mafia
// votes, investigations and protections stay with the roles that cast them.
func (s *Session) ViewFor(viewerID string) *Session {
	v := s.Clone()
	if s.Status == StatusEnded || s.IsHost(viewerID) {
		return v
	}

	own := s.Players[viewerID].Role
	isMafia := own == RoleMafia

	for id, p := range v.Players {
		if id == viewerID || p.Eliminated || (isMafia && p.Role == RoleMafia) {
			continue
		}
		p.Role = ""
		v.Players[id] = p
	}

	if !isMafia {
		v.Votes.Mafia = map[string]string{}
		if v.LastPhase != nil {
			v.LastPhase.MafiaTally = nil
		}
	}

	v.InvestigationResults = onlyKey(v.InvestigationResults, viewerID)
	v.ProtectedPlayers = onlyKey(v.ProtectedPlayers, viewerID)
	if own != RoleDoctor && v.LastPhase != nil {
		v.LastPhase.Protected = nil
	}
	return v
}

func onlyKey[V any](m map[string]V, key string) map[string]V {
	out := map[string]V{}
	if val, ok := m[key]; ok {
		out[key] = val
	}
	return out
}
