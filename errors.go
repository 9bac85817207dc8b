/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Engine error taxonomy. Validation, precondition, conflict, and
// not-found errors are all local and recoverable by the caller; the
// engine never retries on its own. ErrInternalInconsistency signals a
// broken invariant and is fatal to the operation but not to the room.
var (
	ErrValidation            = errors.New("invalid input")
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomFull              = errors.New("room is full")
	ErrNameTaken             = errors.New("display name already taken")
	ErrRoomAlreadyStarted    = errors.New("room has already started")
	ErrNotEnoughPlayers      = errors.New("not enough players to start")
	ErrPhaseMismatch         = errors.New("operation not valid in current phase")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrInvalidVoter          = errors.New("voter is not an active player in this room")
	ErrInvalidTarget         = errors.New("target is not an active player in this room")
	ErrAlreadyVoted          = errors.New("vote already cast this round")
	ErrAlreadyEliminated     = errors.New("player is already eliminated")
	ErrRoomIDCollision       = errors.New("room id already in use")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// errorCode maps an engine error onto a stable wire identifier.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrRoomAlreadyStarted):
		return "room_already_started"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrPhaseMismatch):
		return "phase_mismatch"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrInvalidVoter):
		return "invalid_voter"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrAlreadyEliminated):
		return "already_eliminated"
	case errors.Is(err, ErrRoomIDCollision):
		return "room_id_collision"
	case errors.Is(err, ErrInternalInconsistency):
		return "internal"
	}
	return "internal"
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
