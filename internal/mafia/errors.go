package mafia

import "errors"

// Authorization errors.
var (
	ErrAuthRequired     = errors.New("sign in to continue")
	ErrNotHost          = errors.New("only the host can do that")
	ErrPermissionDenied = errors.New("you are not allowed to do that")
)

// State conflicts.
var (
	ErrAlreadyStarted       = errors.New("this game has already started")
	ErrAlreadyJoined        = errors.New("you have already joined this game")
	ErrSessionFull          = errors.New("game is full")
	ErrInsufficientPlayers  = errors.New("not enough players have joined yet")
	ErrCannotJoinOwnSession = errors.New("you cannot join your own game")
	ErrSessionEnded         = errors.New("this game has ended")
	ErrNotStarted           = errors.New("this game has not started yet")
	ErrInvalidPhase         = errors.New("that is not possible in the current phase")
	ErrNotAPlayer           = errors.New("you are not a player in this game")
	ErrPlayerEliminated     = errors.New("eliminated players cannot act")
	ErrWrongRole            = errors.New("your role cannot do that")
)

// Validation errors.
var (
	ErrInvalidSettings  = errors.New("invalid game settings")
	ErrInvalidTarget    = errors.New("invalid target player")
	ErrInvalidVotePool  = errors.New("unknown vote pool")
	ErrInvalidEndReason = errors.New("unknown end reason")
)

var (
	ErrSessionNotFound         = errors.New("game not found")
	ErrCodeGenerationExhausted = errors.New("could not create a game code, please try again")
)
