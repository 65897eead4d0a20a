package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PermissionGames is what moderators need to run a game
const PermissionGames = "games"

type command struct {
	admin bool
	run   func(s *GameSession, args string, user UserContext) (string, error)
}

var commands = map[string]command{
	"startmafia": {admin: true, run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		return "Mafia signups are open.", s.Start()
	}},
	"endsignups": {admin: true, run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		return "Signups closed.", s.EndSignups()
	}},
	"endmafia": {admin: true, run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		return "The mafia game was ended.", s.End()
	}},
	"modkill": {admin: true, run: func(s *GameSession, args string, _ UserContext) (string, error) {
		if args == "" {
			return "", fmt.Errorf("%w: /modkill needs a player name", ErrTargetIneligible)
		}
		return "Player removed.", s.ModKill(args)
	}},
	"joinmafia": {run: func(s *GameSession, _ string, u UserContext) (string, error) {
		return "You have joined the mafia game.", s.Join(u.ID(), u.Name())
	}},
	"leavemafia": {run: func(s *GameSession, _ string, u UserContext) (string, error) {
		return "You have left the mafia game.", s.Leave(u.ID())
	}},
	"myrole": {run: func(s *GameSession, _ string, u UserContext) (string, error) {
		return s.MyRole(u.ID())
	}},
	"lynch": {run: func(s *GameSession, args string, u UserContext) (string, error) {
		target, err := s.Lynch(u.ID(), args)
		if err != nil {
			return "", err
		}
		return "You have voted to lynch: " + target, nil
	}},
	"nightaction": {run: func(s *GameSession, args string, u UserContext) (string, error) {
		target, err := s.NightAction(u.ID(), args)
		if err != nil {
			return "", err
		}
		return "You have used your night action on: " + target, nil
	}},
	"inspections": {run: func(s *GameSession, _ string, u UserContext) (string, error) {
		results, err := s.Inspections(u.ID())
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "You have not inspected anyone yet.", nil
		}
		return "Your inspections: " + formatPairs(results, ": "), nil
	}},
	"votes": {run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		tally, err := s.Votes()
		if err != nil {
			return "", err
		}
		if len(tally) == 0 {
			return "No one has voted yet.", nil
		}
		return "Current votes: " + formatPairs(tally, ": "), nil
	}},
	"players": {run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		if s.Phase() == PhaseOff {
			return "", fmt.Errorf("%w: a mafia game hasn't started yet", ErrWrongPhase)
		}
		names := s.PlayerNames()
		if len(names) == 0 {
			return "No one has joined yet.", nil
		}
		return "Players: " + strings.Join(names, ", "), nil
	}},
	"roles": {run: func(s *GameSession, _ string, _ UserContext) (string, error) {
		if !s.active() {
			return "", fmt.Errorf("%w: roles have not been handed out", ErrWrongPhase)
		}
		return "Roles this game: " + formatTotals(s.RoleTotals()), nil
	}},
}

// Dispatch runs one command line ("/lynch bob") for user in room. s is nil
// when room does not host games. The reply is an HTML fragment meant only for
// the user; announcements go through room.
func Dispatch(s *GameSession, line string, room RoomContext, user UserContext) (string, error) {
	name, args := parseCommand(line)

	if name == "mafiahelp" {
		var catalog *RoleCatalog
		if s != nil {
			catalog = s.catalog
		}
		return renderHelp(catalog), nil
	}

	cmd, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}
	if s == nil {
		return "", ErrWrongRoom
	}
	if cmd.admin && !user.Can(PermissionGames) {
		return "", fmt.Errorf("%w: /%s", ErrUnauthorized, name)
	}

	DebugLog("Dispatch", "Room %s: %s ran /%s %q", room.ID(), user.ID(), name, args)
	reply, err := cmd.run(s, args, user)
	if err != nil {
		return "", err
	}
	return renderToast("info", reply), nil
}

// parseCommand splits "/Name args" into a lower-case name and trimmed args
func parseCommand(line string) (string, string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, args, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// errorReply renders a failed command for the user who issued it
func errorReply(err error) string {
	var msg string
	switch {
	case errors.Is(err, ErrUnauthorized):
		msg = "Access denied."
	case errors.Is(err, ErrWrongRoom):
		msg = "This command can only be used in a mafia room."
	case errors.Is(err, ErrNotParticipant):
		msg = "You are not participating in the current mafia game."
	case errors.Is(err, ErrInsufficientPlayers):
		msg = "There are not enough participants (minimum 3 players)."
	default:
		msg = err.Error()
	}
	return renderToast("error", msg)
}

// formatPairs renders a map as "k: v, ..." sorted by key
func formatPairs[V any](m map[string]V, sep string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%s%v", k, sep, m[k]))
	}
	return strings.Join(parts, ", ")
}
