package draft

import (
	"errors"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/recommend"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/roster"
)

// Draft errors. All of them are validation failures: a rejected call leaves the draft unchanged.
var (
	ErrInvalidTeam          = errors.New("invalid team")
	ErrUnknownPlayer        = errors.New("unknown player")
	ErrPlayerAlreadyDrafted = errors.New("player already drafted")
	ErrDraftAlreadyComplete = errors.New("draft is complete")
	ErrOutOfTurn            = errors.New("team is not on the clock")
	ErrInvalidConfiguration = errors.New("invalid league configuration")
	ErrNotInitialized       = errors.New("draft has not been initialized")

	ErrNoSlotAvailable      = roster.ErrNoSlotAvailable
	ErrNoEligibleCandidates = recommend.ErrNoEligibleCandidates
)
