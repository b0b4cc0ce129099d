package game_constants

import "time"

const MaxHealth = 50
const DefaultHealth = 50

// A match is forced to end once turn >= tracked health entries * RoundLimitFactor.
const RoundLimitFactor = 15

const MinPlayersToStart = 2

const TurnDuration = 60 * time.Second
const DisconnectGrace = 10 * time.Second

// Chat tail sizes returned to clients
const (
	ChatTailGameState = 10
	ChatTailReconnect = 20
)

// Room codes are 4-digit numeric strings, rejection-sampled against the store.
const (
	RoomCodeMin = 1000
	RoomCodeMax = 9999
)

// Move kinds carried on the wire
const (
	MoveTypeAttack = "a"
	MoveTypeHeal   = "h"
)

// Match status values
const (
	StatusNotStarted = "not_started"
	StatusStarted    = "started"
	StatusEnded      = "ended"
)

const (
	WinnerGroup1 = "group1"
	WinnerGroup2 = "group2"
	WinnerTie    = "tie"
)
