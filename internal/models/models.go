package models

import (
	"database/sql"
	"math"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// FlashcardSet groups a user's cards. CardCount is filled by list
// queries, not stored.
type FlashcardSet struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
	CardCount int
}

// Card is a persisted flashcard. Score and Strategy record how the
// extraction pipeline produced it (manually created cards carry an
// empty strategy and a score of 1). The remaining fields drive FSRS
// review scheduling.
type Card struct {
	ID            int64
	SetID         int64
	Question      string
	Answer        string
	Score         float64
	Strategy      string
	Due           sql.NullTime
	Stability     float64
	Difficulty    float64
	ElapsedDays   int
	ScheduledDays int
	Reps          int
	Lapses        int
	State         int
	LastReview    sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ReviewLog struct {
	ID            int64
	CardID        int64
	Rating        int
	ScheduledDays int
	ElapsedDays   int
	State         int
	ReviewedAt    time.Time
}

// Progress aggregates quiz results for one user and set. SetName is
// filled by list queries for display.
type Progress struct {
	UserID        int64
	SetID         int64
	TotalAttempts int
	Correct       int
	LastReviewed  time.Time
	SetName       string
}

// Accuracy returns the percentage of correct answers, rounded to two
// decimals; zero attempts yield zero.
func (p Progress) Accuracy() float64 {
	if p.TotalAttempts <= 0 {
		return 0
	}
	acc := float64(p.Correct) / float64(p.TotalAttempts) * 100
	return math.Round(acc*100) / 100
}

type Document struct {
	ID           int64
	SetID        sql.NullInt64
	OriginalName string
	StoredPath   string
	Kind         string
	UploadedAt   time.Time
}

func (c *Card) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         fsrs.State(max(c.State, 0)),
	}
	if c.Due.Valid {
		card.Due = c.Due.Time
	}
	if c.LastReview.Valid {
		card.LastReview = c.LastReview.Time
	}
	return card
}

func (c *Card) ApplyFSRSCard(f fsrs.Card) {
	c.Due = sql.NullTime{Time: f.Due, Valid: !f.Due.IsZero()}
	c.Stability = f.Stability
	c.Difficulty = f.Difficulty
	c.ElapsedDays = int(f.ElapsedDays)
	c.ScheduledDays = int(f.ScheduledDays)
	c.Reps = int(f.Reps)
	c.Lapses = int(f.Lapses)
	c.State = int(f.State)
	c.LastReview = sql.NullTime{Time: f.LastReview, Valid: !f.LastReview.IsZero()}
}
