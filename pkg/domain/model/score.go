package model

import "time"

// ScoreSnapshot is the derived expertise/influence rollup for one person.
// It is always reproducible from the event and edge logs.
type ScoreSnapshot struct {
	PersonID   PersonID
	Expertise  map[string]float64 // concept token -> score
	Influence  float64
	EventCount int
	ComputedAt time.Time
}

// CollaboratorScore is one entry of a per-pair collaboration ranking
type CollaboratorScore struct {
	PersonID    PersonID
	DisplayName string
	Strength    float64
	SharedItems int
}
