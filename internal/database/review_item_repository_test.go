package database

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/openingcoach/pkg/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// One connection, or each pool member gets its own empty in-memory DB
	db.SetMaxOpenConns(1)

	prev := DB
	DB = db
	if err := initializeSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		DB = prev
	})
}

func testCard(interval, repetitions int) models.ReviewItem {
	now := time.Now().UTC().Format(time.RFC3339)
	return models.ReviewItem{
		UserID:         42,
		OpeningID:      "italian",
		LineID:         "italian/giuoco",
		FEN:            "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		TargetPly:      4,
		ExpectedSAN:    "Bc5",
		Interval:       interval,
		EaseFactor:     2.5,
		Repetitions:    repetitions,
		LastReviewDate: now,
		NextReviewDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestReviewItemAdd_DuplicateKeepsSchedule(t *testing.T) {
	setupTestDB(t)
	repo := NewReviewItemRepository()

	first := testCard(1, 0)
	if err := repo.Add(&first); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items, err := repo.GetByUser(42, "")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	// Advance the card's schedule as a review pass would
	stored := items[0]
	stored.Interval = 6
	stored.Repetitions = 2
	stored.LastQuality = 4
	if err := repo.Update(&stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// The same mistake again produces a fresh card for the same position
	dup := testCard(1, 0)
	if err := repo.Add(&dup); err != nil {
		t.Fatalf("duplicate Add: %v", err)
	}

	items, err = repo.GetByUser(42, "")
	if err != nil {
		t.Fatalf("GetByUser after duplicate: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("duplicate insert created a row: got %d items, want 1", len(items))
	}
	if items[0].Interval != 6 || items[0].Repetitions != 2 {
		t.Errorf("schedule reset by duplicate insert: interval=%d repetitions=%d, want 6 and 2",
			items[0].Interval, items[0].Repetitions)
	}
}

func TestReviewItemAdd_DifferentPlyIsNewCard(t *testing.T) {
	setupTestDB(t)
	repo := NewReviewItemRepository()

	first := testCard(1, 0)
	if err := repo.Add(&first); err != nil {
		t.Fatalf("Add: %v", err)
	}

	other := testCard(1, 0)
	other.TargetPly = 6
	other.ExpectedSAN = "Nf6"
	if err := repo.Add(&other); err != nil {
		t.Fatalf("Add second ply: %v", err)
	}

	items, err := repo.GetByUser(42, "italian")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}
