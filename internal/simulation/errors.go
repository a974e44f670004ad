package simulation

import (
	"errors"
	"fmt"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/imaging"
)

// UserInputError is a problem with what the user supplied. It is raised
// before any backend call.
type UserInputError struct {
	Msg string
	Err error
}

func (e *UserInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UserInputError) Unwrap() error { return e.Err }

// decodeError reports an image the user supplied that imaging.Decode refused.
func decodeError(subject string, err error) error {
	if errors.Is(err, imaging.ErrTooLarge) {
		return &UserInputError{
			Msg: fmt.Sprintf("The %s is too large (at most %d megapixels).", subject, imaging.MaxPixels/1_000_000),
			Err: err,
		}
	}
	return &UserInputError{Msg: "The " + subject + " could not be decoded.", Err: err}
}

var (
	ErrNoSelection   = &UserInputError{Msg: "Please draw a rectangle on the map or upload a pre-disaster image."}
	ErrNoResult      = &UserInputError{Msg: "Run simulation first (to produce a generated image)."}
	ErrNoGroundTruth = &UserInputError{Msg: "Upload a ground-truth (post-disaster) image to validate."}
)

// Operation selects the wording of Message.
type Operation int

const (
	OpSimulate Operation = iota
	OpCompare
)

func (op Operation) String() string {
	if op == OpCompare {
		return "compare"
	}
	return "simulate"
}

// Message turns an orchestrator error into the one line shown to the user.
func Message(op Operation, err error) string {
	if err == nil {
		return ""
	}

	var input *UserInputError
	if errors.As(err, &input) {
		return input.Msg
	}

	var status *backend.StatusError
	if errors.As(err, &status) {
		if op == OpCompare {
			return fmt.Sprintf("Backend compare failed: %d → %s", status.Code, clipBody(status.Body))
		}
		return fmt.Sprintf("Backend error: %d — %s", status.Code, clipBody(status.Body))
	}

	if errors.Is(err, backend.ErrTimeout) {
		if op == OpCompare {
			return "⏱️ Backend compare request timed out."
		}
		return "⏱️ Backend timed out. Try again or increase backend timeout."
	}

	if op == OpCompare {
		return fmt.Sprintf("Compare failed: %v", err)
	}
	return fmt.Sprintf("Simulation failed: %v", err)
}

// maxBodyRunes keeps a status line under Discord's 2000 character limit.
const maxBodyRunes = 1800

func clipBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyRunes {
		return body
	}
	return string(runes[:maxBodyRunes]) + "…"
}
