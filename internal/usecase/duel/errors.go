package duel

import (
	"github.com/pkg/errors"
)

var (
	ErrDuelInProgress   = errors.New("another duel is in progress")
	ErrInvalidDuel      = errors.New("duel needs both an attacker and a defender")
	ErrUnknownDuel      = errors.New("no such duel is awaiting a verdict")
	ErrDuplicateVerdict = errors.New("duel verdict has already been accepted")
	errResolverMissing  = errors.New("no duel resolver configured")
)
