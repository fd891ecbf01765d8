package models

import "time"

// Participant is a tracked member together with the aggregates derived from their logs.
type Participant struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Handle          *string   `db:"handle" json:"handle,omitempty"`
	Active          bool      `db:"active" json:"active"`
	TotalPoints     int       `db:"total_points" json:"total_points"`
	Streak          int       `db:"streak" json:"streak"`
	FreezeCardCount int       `db:"freeze_card_count" json:"freeze_card_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ParticipantIdentity is the identity information parsed from the source sheets.
type ParticipantIdentity struct {
	Name   string
	Handle *string
	Active bool
	// Listed reports whether the name appeared on the identity sheet.
	Listed bool
}

// IdentityUpdate carries a handle/active change for an existing participant.
type IdentityUpdate struct {
	ParticipantID string
	Handle        *string
	Active        bool
}

// ParticipantAggregate holds the recomputed aggregate fields for a participant.
type ParticipantAggregate struct {
	ParticipantID   string
	TotalPoints     int
	Streak          int
	FreezeCardCount int
}

// ParticipantFilter captures leaderboard filters.
type ParticipantFilter struct {
	Active *bool
}
