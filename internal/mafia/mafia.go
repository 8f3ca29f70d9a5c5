// Package mafia defines the core domain types of a Mafia game night.
// It has zero external dependencies, everything here is pure Go.
package mafia

import "time"

// Identity is the authenticated caller of an operation.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusStarted Status = "started"
	StatusEnded   Status = "ended"
)

type EndReason string

const (
	EndReasonHostEnded EndReason = "host_ended"
	EndReasonTimeout   EndReason = "timeout"
)

type Role string

const (
	RoleMafia     Role = "Mafia"
	RoleDetective Role = "Detective"
	RoleDoctor    Role = "Doctor"
	RoleCivilian  Role = "Civilian"
)

// Roles lists every role in display order.
var Roles = []Role{RoleMafia, RoleDetective, RoleDoctor, RoleCivilian}

type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseDay         Phase = "day"
	PhaseVoting      Phase = "voting"
	PhaseNight       Phase = "night"
	PhaseResults     Phase = "results"
)

type VotePool string

const (
	PoolMafia    VotePool = "mafia"
	PoolCivilian VotePool = "civilian"
)

// Faction is the winning side of a finished game.
type Faction string

const (
	FactionMafia Faction = "mafia"
	FactionTown  Faction = "town"
)

type Settings struct {
	TotalPlayers   int `json:"totalPlayers"`
	MafiaCount     int `json:"mafiaCount"`
	DetectiveCount int `json:"detectiveCount"`
	DoctorCount    int `json:"doctorCount"`
}

type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	JoinedAt   time.Time `json:"joinedAt"`
	Role       Role      `json:"role,omitempty"`
	Eliminated bool      `json:"eliminated,omitempty"`
}

type Votes struct {
	Mafia    map[string]string `json:"mafia"`
	Civilian map[string]string `json:"civilian"`
}

type Investigation struct {
	TargetID       string    `json:"targetId"`
	IsMafia        bool      `json:"isMafia"`
	InvestigatedAt time.Time `json:"investigatedAt"`
}

// PhaseSummary captures the votes and protections of a phase right before
// they are reset by a transition.
type PhaseSummary struct {
	Phase         Phase          `json:"phase"`
	Round         int            `json:"round"`
	MafiaTally    map[string]int `json:"mafiaTally,omitempty"`
	CivilianTally map[string]int `json:"civilianTally,omitempty"`
	Protected     []string       `json:"protected,omitempty"`
}

// Session is the single shared document of one hosted game.
type Session struct {
	Code      string     `json:"code"`
	HostID    string     `json:"hostId"`
	HostName  string     `json:"hostName"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	EndReason EndReason  `json:"endReason,omitempty"`
	Settings  Settings   `json:"settings"`

	Players map[string]Player `json:"players"`

	CurrentPhase Phase         `json:"currentPhase,omitempty"`
	PhaseEndsAt  *time.Time    `json:"phaseEndsAt,omitempty"`
	Round        int           `json:"round,omitempty"`
	LastPhase    *PhaseSummary `json:"lastPhase,omitempty"`

	EliminatedPlayers    []string                 `json:"eliminatedPlayers"`
	Votes                Votes                    `json:"votes"`
	InvestigationResults map[string]Investigation `json:"investigationResults"`
	ProtectedPlayers     map[string]string        `json:"protectedPlayers"`
	Winner               Faction                  `json:"winner,omitempty"`

	// Version increases on every committed write.
	Version int64 `json:"version"`
}
