package models

import "fmt"

// ModerationAction is one of the moderation operations the actuator can
// perform against the platform.
type ModerationAction string

const (
	ActionHide   ModerationAction = "hide"
	ActionUnhide ModerationAction = "unhide"
	ActionDelete ModerationAction = "delete"
)

// Valid reports whether the action is one the actuator knows how to apply.
func (a ModerationAction) Valid() bool {
	switch a {
	case ActionHide, ActionUnhide, ActionDelete:
		return true
	}
	return false
}

// ParseModerationAction converts a request string into a ModerationAction.
func ParseModerationAction(s string) (ModerationAction, error) {
	a := ModerationAction(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown moderation action: %q", s)
	}
	return a, nil
}
