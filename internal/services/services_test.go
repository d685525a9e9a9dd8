package services_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"flashmind/internal/db"
	"flashmind/internal/extract"
	"flashmind/internal/services"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func scored(question, answer string, score float64, strategy extract.Strategy) extract.ScoredCard {
	return extract.ScoredCard{
		Candidate: extract.Candidate{
			Question: question,
			Answer:   answer,
			Strategy: strategy,
		},
		Score: score,
	}
}

func TestUserService(t *testing.T) {
	conn := openTestDB(t)
	users := services.NewUserService(conn)
	ctx := context.Background()

	user, err := users.Register(ctx, "alice", "a long enough password")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Errorf("unexpected user %+v", user)
	}

	t.Run("DuplicateUsername", func(t *testing.T) {
		if _, err := users.Register(ctx, "alice", "another password"); !errors.Is(err, services.ErrUserExists) {
			t.Errorf("Register duplicate = %v, want ErrUserExists", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		got, err := users.Authenticate(ctx, "alice", "a long enough password")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID = %d, want %d", got.ID, user.ID)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		if _, err := users.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("Authenticate wrong password = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		if _, err := users.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("Authenticate unknown user = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestSetService(t *testing.T) {
	conn := openTestDB(t)
	users := services.NewUserService(conn)
	sets := services.NewSetService(conn)
	cards := services.NewFlashcardService(conn)
	ctx := context.Background()

	user, err := users.Register(ctx, "bob", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	set, err := sets.Create(ctx, user.ID, "Biology")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("GetOrCreateReusesExisting", func(t *testing.T) {
		again, err := sets.GetOrCreate(ctx, user.ID, "Biology")
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if again.ID != set.ID {
			t.Errorf("GetOrCreate created a new set %d, want existing %d", again.ID, set.ID)
		}
	})

	t.Run("GetOrCreateCreatesMissing", func(t *testing.T) {
		fresh, err := sets.GetOrCreate(ctx, user.ID, "Chemistry")
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if fresh.ID == set.ID {
			t.Error("expected a distinct set for a new name")
		}
	})

	t.Run("ListByUserWithCardCounts", func(t *testing.T) {
		if _, err := cards.AddCards(ctx, set.ID, []extract.ScoredCard{
			scored("What is Mitosis?", "cell division producing identical cells", 0.85, extract.StrategyColon),
			scored("What is Meiosis?", "cell division producing gametes", 0.75, extract.StrategyDefinition),
		}); err != nil {
			t.Fatalf("AddCards: %v", err)
		}

		listed, err := sets.ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 sets, got %d", len(listed))
		}
		for _, s := range listed {
			if s.Name == "Biology" && s.CardCount != 2 {
				t.Errorf("Biology card count = %d, want 2", s.CardCount)
			}
		}
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		if _, err := sets.GetByID(ctx, 99999); !errors.Is(err, services.ErrSetNotFound) {
			t.Errorf("GetByID missing = %v, want ErrSetNotFound", err)
		}
	})
}

func TestFlashcardService(t *testing.T) {
	conn := openTestDB(t)
	users := services.NewUserService(conn)
	sets := services.NewSetService(conn)
	cards := services.NewFlashcardService(conn)
	ctx := context.Background()

	user, err := users.Register(ctx, "carol", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	set, err := sets.Create(ctx, user.ID, "CS")
	if err != nil {
		t.Fatalf("Create set: %v", err)
	}

	saved, err := cards.AddCards(ctx, set.ID, []extract.ScoredCard{
		scored("What is a stack?", "a LIFO data structure", 0.85, extract.StrategyColon),
		scored("What is a queue?", "a FIFO data structure", 0.75, extract.StrategyDefinition),
	})
	if err != nil {
		t.Fatalf("AddCards: %v", err)
	}
	if saved != 2 {
		t.Errorf("saved = %d, want 2", saved)
	}

	t.Run("ListBySetOrderedByScore", func(t *testing.T) {
		listed, err := cards.ListBySet(ctx, set.ID)
		if err != nil {
			t.Fatalf("ListBySet: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 cards, got %d", len(listed))
		}
		if listed[0].Score < listed[1].Score {
			t.Errorf("cards not ordered by score: %v then %v", listed[0].Score, listed[1].Score)
		}
		if listed[0].Strategy != string(extract.StrategyColon) {
			t.Errorf("strategy = %q, want colon", listed[0].Strategy)
		}
	})

	t.Run("ManualCreate", func(t *testing.T) {
		card, err := cards.CreateCard(ctx, set.ID, "What is a heap?", "a tree-shaped priority structure")
		if err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		if card.Score != 1 || card.Strategy != "" {
			t.Errorf("manual card score=%v strategy=%q, want 1 and empty", card.Score, card.Strategy)
		}
	})

	t.Run("ManualCreateRejectsEmpty", func(t *testing.T) {
		if _, err := cards.CreateCard(ctx, set.ID, "", "answer"); err == nil {
			t.Error("expected error for empty question")
		}
	})

	t.Run("NextDueAndReview", func(t *testing.T) {
		card, err := cards.NextDue(ctx, set.ID)
		if err != nil {
			t.Fatalf("NextDue: %v", err)
		}

		updated, logEntry, err := cards.Review(ctx, card.ID, fsrs.Good)
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if updated.Reps != card.Reps+1 {
			t.Errorf("reps = %d, want %d", updated.Reps, card.Reps+1)
		}
		if !updated.Due.Valid || !updated.Due.Time.After(card.CreatedAt) {
			t.Errorf("due not pushed into the future: %+v", updated.Due)
		}
		if logEntry.CardID != card.ID || logEntry.Rating != int(fsrs.Good) {
			t.Errorf("unexpected review log %+v", logEntry)
		}
	})

	t.Run("ReviewMissingCard", func(t *testing.T) {
		if _, _, err := cards.Review(ctx, 99999, fsrs.Good); !errors.Is(err, services.ErrCardNotFound) {
			t.Errorf("Review missing = %v, want ErrCardNotFound", err)
		}
	})

	t.Run("NoDueCards", func(t *testing.T) {
		empty, err := sets.Create(ctx, user.ID, "Empty")
		if err != nil {
			t.Fatalf("Create set: %v", err)
		}
		if _, err := cards.NextDue(ctx, empty.ID); !errors.Is(err, services.ErrNoDueCards) {
			t.Errorf("NextDue on empty set = %v, want ErrNoDueCards", err)
		}
	})
}

func TestProgressRecording(t *testing.T) {
	conn := openTestDB(t)
	users := services.NewUserService(conn)
	sets := services.NewSetService(conn)
	cards := services.NewFlashcardService(conn)
	ctx := context.Background()

	user, err := users.Register(ctx, "dave", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	set, err := sets.Create(ctx, user.ID, "History")
	if err != nil {
		t.Fatalf("Create set: %v", err)
	}

	for _, correct := range []bool{true, true, false} {
		if err := cards.RecordQuizResult(ctx, user.ID, set.ID, correct); err != nil {
			t.Fatalf("RecordQuizResult: %v", err)
		}
	}
	if err := cards.SaveQuizBatch(ctx, user.ID, set.ID, 3, 1); err != nil {
		t.Fatalf("SaveQuizBatch: %v", err)
	}

	entries, err := cards.ProgressByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ProgressByUser: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 progress entry, got %d", len(entries))
	}

	p := entries[0]
	if p.TotalAttempts != 6 || p.Correct != 3 {
		t.Errorf("attempts=%d correct=%d, want 6 and 3", p.TotalAttempts, p.Correct)
	}
	if p.Accuracy() != 50 {
		t.Errorf("accuracy = %v, want 50", p.Accuracy())
	}
	if p.SetName != "History" {
		t.Errorf("set name = %q, want History", p.SetName)
	}

	t.Run("BatchValidation", func(t *testing.T) {
		if err := cards.SaveQuizBatch(ctx, user.ID, set.ID, 0, 0); err == nil {
			t.Error("expected error for zero attempts")
		}
		if err := cards.SaveQuizBatch(ctx, user.ID, set.ID, 2, 3); err == nil {
			t.Error("expected error for correct > attempts")
		}
	})
}

func TestIngestionService(t *testing.T) {
	conn := openTestDB(t)
	users := services.NewUserService(conn)
	sets := services.NewSetService(conn)
	cards := services.NewFlashcardService(conn)
	documents := services.NewDocumentService(conn, t.TempDir())
	extractor := extract.NewService(extract.DefaultConfig(), nil)
	ingestion := services.NewIngestionService(documents, extractor, sets, cards)
	ctx := context.Background()

	user, err := users.Register(ctx, "erin", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	notes := []byte("Binary Search: an efficient algorithm for finding an item in a sorted list.\n" +
		"Recursion is a technique where a function calls itself.")

	doc, candidates, err := ingestion.ProcessDocument(ctx, "notes.txt", notes)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if doc.Kind != string(extract.KindText) {
		t.Errorf("kind = %q, want txt", doc.Kind)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}

	t.Run("CandidatesNotPersisted", func(t *testing.T) {
		listed, err := sets.ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("extraction should not create sets, got %+v", listed)
		}
	})

	t.Run("SaveGenerated", func(t *testing.T) {
		set, saved, err := ingestion.SaveGenerated(ctx, user.ID, "Algorithms", doc.ID, candidates)
		if err != nil {
			t.Fatalf("SaveGenerated: %v", err)
		}
		if saved != 2 {
			t.Errorf("saved = %d, want 2", saved)
		}

		persisted, err := cards.ListBySet(ctx, set.ID)
		if err != nil {
			t.Fatalf("ListBySet: %v", err)
		}
		if len(persisted) != 2 {
			t.Fatalf("expected 2 cards, got %d", len(persisted))
		}
		// Saved text matches the extracted candidate verbatim.
		if persisted[0].Question != candidates[0].Question || persisted[0].Answer != candidates[0].Answer {
			t.Errorf("persisted card %+v does not match candidate %+v", persisted[0], candidates[0])
		}

		stored, err := documents.GetByID(ctx, doc.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if !stored.SetID.Valid || stored.SetID.Int64 != set.ID {
			t.Errorf("document not linked to set: %+v", stored.SetID)
		}
	})

	t.Run("ProgressCallback", func(t *testing.T) {
		var steps []string
		_, _, err := ingestion.ProcessDocumentWithProgress(ctx, "more.txt", notes,
			func(step, message string, current, total int) {
				steps = append(steps, step)
			})
		if err != nil {
			t.Fatalf("ProcessDocumentWithProgress: %v", err)
		}
		if len(steps) == 0 || steps[len(steps)-1] != "complete" {
			t.Errorf("progress steps = %v, want a trailing complete", steps)
		}
	})
}
