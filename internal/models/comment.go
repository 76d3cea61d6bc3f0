package models

import "time"

// Comment is a single remote comment flattened out of the media tree.
// It is never persisted; every sync builds these fresh from the platform
// response.
type Comment struct {
	ID             string `json:"id"`
	MediaID        string `json:"mediaId"`
	MediaTimestamp string `json:"timestamp,omitempty"`
	Text           string `json:"text"`
	Username       string `json:"username"`
	Hidden         bool   `json:"hidden"` // hidden state as reported by the platform
}

// AnalyzedComment represents a row in the 'analyzed_comments' table.
// One row per (user_id, comment_id); is_harmful is written once and never
// updated afterwards.
type AnalyzedComment struct {
	UserID     string    `db:"user_id"`
	CommentID  string    `db:"comment_id"`
	MediaID    string    `db:"media_id"`
	Text       string    `db:"text"`
	Username   string    `db:"username"`
	IsHarmful  bool      `db:"is_harmful"`
	IsHidden   bool      `db:"is_hidden"`
	AnalyzedAt time.Time `db:"analyzed_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// MergedComment is the view returned by a sync: the remote comment overlaid
// with what the ledger knows about it. IsHarmful is nil for comments that
// have not been classified yet. Hidden comes from the ledger when a row
// exists, otherwise from the platform.
type MergedComment struct {
	ID             string `json:"id"`
	MediaID        string `json:"mediaId"`
	MediaTimestamp string `json:"timestamp,omitempty"`
	Text           string `json:"text"`
	Username       string `json:"username"`
	Hidden         bool   `json:"hidden"`
	IsHarmful      *bool  `json:"isHarmful,omitempty"`
}

// CommentStatus is the per-comment ledger summary served to the UI.
type CommentStatus struct {
	IsHarmful bool `json:"isHarmful"`
	IsHidden  bool `json:"isHidden"`
}
