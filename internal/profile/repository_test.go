package profile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
)

func setupTestDB(t *testing.T) (*database.DB, *note.Note) {
	tmpDir := t.TempDir()
	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	n, err := note.NewRepository(db).Add(context.Background(), &note.Note{
		Title:     "Resumen de límites",
		Subject:   "Cálculo Diferencial",
		NoteType:  catalog.TypeSummary,
		AuthorRut: "11111111-1",
	})
	if err != nil {
		t.Fatalf("failed to add note: %v", err)
	}
	return db, n
}

func sampleProfile() *Profile {
	return &Profile{
		UserRut:   "12345678-9",
		Enrolled:  []string{"Cálculo Diferencial"},
		Interests: []string{"Programación"},
		Curriculum: []CurriculumEntry{
			{Subject: "Álgebra", Evaluations: []Evaluation{{Type: "Certamen", Grade: 5.5, Weight: 40}}},
			{Subject: "Física I", ComplexityRank: 8},
		},
		StudyMethods: []string{catalog.MethodPractice},
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	db, n := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, sampleProfile()); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}
	if err := repo.AddRating(ctx, "12345678-9", n.ID, 6); err != nil {
		t.Fatalf("failed to add rating: %v", err)
	}
	if err := repo.AddDownload(ctx, "12345678-9", n.ID); err != nil {
		t.Fatalf("failed to add download: %v", err)
	}

	p, err := repo.Get(ctx, "12345678-9")
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if len(p.Curriculum) != 2 {
		t.Fatalf("expected 2 curriculum entries, got %d", len(p.Curriculum))
	}
	if p.Curriculum[1].ComplexityRank != 8 {
		t.Errorf("expected complexity rank 8, got %d", p.Curriculum[1].ComplexityRank)
	}
	if !p.HasRated(n.ID) {
		t.Error("expected profile to have rated the note")
	}
	if !p.HasDownloaded(n.ID) {
		t.Error("expected profile to have downloaded the note")
	}

	updated, _ := note.NewRepository(db).Get(ctx, n.ID)
	if updated.DownloadCount != 1 {
		t.Errorf("expected download count 1, got %d", updated.DownloadCount)
	}

	// A repeated download is not counted twice.
	repo.AddDownload(ctx, "12345678-9", n.ID)
	updated, _ = note.NewRepository(db).Get(ctx, n.ID)
	if updated.DownloadCount != 1 {
		t.Errorf("expected download count to stay 1, got %d", updated.DownloadCount)
	}
}

func TestGetMissingProfile(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()

	_, err := NewRepository(db).Get(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsAmbiguousCurriculum(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()

	p := sampleProfile()
	p.Curriculum[0].ComplexityRank = 3

	err := NewRepository(db).Save(context.Background(), p)
	if !errors.Is(err, ErrInvalidCurriculum) {
		t.Errorf("expected ErrInvalidCurriculum, got %v", err)
	}
}

func TestAddRatingOutOfRange(t *testing.T) {
	db, n := setupTestDB(t)
	defer db.Close()

	if err := NewRepository(db).AddRating(context.Background(), "x", n.ID, 9); err == nil {
		t.Error("expected error for rating above 7")
	}
}

func TestProfileMembership(t *testing.T) {
	p := sampleProfile()

	if !p.IsEnrolled("calculo diferencial") {
		t.Error("expected enrolled match ignoring accents and case")
	}
	if !p.IsInterested("Programación") {
		t.Error("expected interest match")
	}
	if p.IsDirectlyRelevant("Química") {
		t.Error("expected Química not to be relevant")
	}
	if p.CurriculumEntryFor("física i") == nil {
		t.Error("expected curriculum entry lookup ignoring accents")
	}
	if got := len(p.TrackedSubjects()); got != 2 {
		t.Errorf("expected 2 tracked subjects, got %d", got)
	}
}
