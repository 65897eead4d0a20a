package main

import "errors"

// Phase and membership errors
var (
	ErrWrongPhase          = errors.New("command not valid in the current phase")
	ErrNotInSignupPhase    = errors.New("signups are not happening right now")
	ErrNotParticipant      = errors.New("not participating in the current mafia game")
	ErrAlreadyJoined       = errors.New("already participating in the current mafia game")
	ErrInsufficientPlayers = errors.New("not enough participants (minimum 3 players)")
	ErrGameActive          = errors.New("there is already an active mafia game")
)

// Action errors
var (
	ErrTargetIneligible = errors.New("target is not participating or has died")
	ErrNoNightAbility   = errors.New("role has no night action")
)

// Command errors
var (
	ErrUnauthorized   = errors.New("insufficient privilege")
	ErrWrongRoom      = errors.New("mafia commands only work in the mafia room")
	ErrUnknownCommand = errors.New("unknown command")
	ErrModchat        = errors.New("the room is moderated, only moderators can talk right now")
)
