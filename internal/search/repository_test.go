package search

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
)

func setupTestDB(t *testing.T) *database.DB {
	tmpDir := t.TempDir()
	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	noteRepo := note.NewRepository(db)
	notes := []*note.Note{
		{
			Title:         "Derivadas paso a paso",
			Description:   "<p>Regla de la cadena y <i>derivadas implícitas</i></p>",
			Subject:       "Cálculo Diferencial",
			NoteType:      catalog.TypeSolvedExercise,
			Tags:          []string{"derivadas"},
			AuthorRut:     "11111111-1",
			UploadedAt:    time.Now(),
			DownloadCount: 40,
		},
		{
			Title:         "Resumen de cinemática",
			Description:   "Movimiento rectilíneo uniforme",
			Subject:       "Física I",
			NoteType:      catalog.TypeSummary,
			AuthorRut:     "11111111-1",
			UploadedAt:    time.Now(),
			DownloadCount: 10,
		},
		{
			Title:      "Formulario de derivadas",
			Subject:    "Cálculo Diferencial",
			NoteType:   catalog.TypeFormulary,
			State:      catalog.StateSuspended,
			AuthorRut:  "22222222-2",
			UploadedAt: time.Now(),
		},
	}
	for _, n := range notes {
		if _, err := noteRepo.Add(ctx, n); err != nil {
			t.Fatalf("failed to add note: %v", err)
		}
	}

	return db
}

func TestSearchByQuery(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	results, err := repo.Search(context.Background(), "derivadas", 10)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 active result for 'derivadas', got %d", len(results))
	}
	if results[0].Subject != "Cálculo Diferencial" {
		t.Errorf("expected subject Cálculo Diferencial, got %s", results[0].Subject)
	}
}

func TestSearchIgnoresAccents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	results, err := repo.Search(context.Background(), "cinematica", 10)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result for 'cinematica', got %d", len(results))
	}
}

func TestSearchNoResults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	results, err := repo.Search(context.Background(), "termodinámica", 10)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected no results for 'termodinámica', got %d", len(results))
	}
}

func TestSearchWithSnippet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	results, err := repo.Search(context.Background(), "cadena", 10)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("expected results")
	}

	if !strings.Contains(results[0].Snippet, "<b>") {
		t.Errorf("expected highlighted snippet, got %q", results[0].Snippet)
	}
}

func TestSearchMalformedInput(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	results, err := repo.Search(context.Background(), `"deri* (`, 10)
	if err != nil {
		t.Fatalf("expected malformed input to be sanitized, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}

	results, err = repo.Search(context.Background(), "  ¿? ", 10)
	if err != nil || results != nil {
		t.Errorf("expected no search for empty input, got %v, %v", results, err)
	}
}

func TestRebuildIndex(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "DELETE FROM notes_fts"); err != nil {
		t.Fatalf("failed to clear index: %v", err)
	}

	count, err := repo.RebuildIndex(ctx)
	if err != nil {
		t.Fatalf("failed to rebuild index: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 indexed notes, got %d", count)
	}

	results, err := repo.Search(ctx, "rectilineo", 10)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected description text to be indexed, got %d results", len(results))
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"derivadas", "derivadas*"},
		{"  Cálculo   INTEGRAL ", "cálculo* integral*"},
		{`"OR" -x (y)`, "or* x* y*"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BuildQuery(tt.input); got != tt.want {
			t.Errorf("BuildQuery(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
