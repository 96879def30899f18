package recommend

import (
	"testing"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
)

func TestExplain(t *testing.T) {
	old := testNow.AddDate(0, -6, 0)

	tests := []struct {
		name    string
		note    note.Note
		profile *profile.Profile
		want    string
	}{
		{
			name:    "fallback",
			note:    note.Note{Subject: "Química", NoteType: catalog.TypeOther, UploadedAt: old},
			profile: &profile.Profile{},
			want:    FallbackReason,
		},
		{
			name:    "enrolled wins over interest",
			note:    note.Note{Subject: "Química", NoteType: catalog.TypeOther, UploadedAt: old},
			profile: &profile.Profile{Enrolled: []string{"quimica"}, Interests: []string{"Química"}},
			want:    "Estás cursando Química",
		},
		{
			name:    "interest",
			note:    note.Note{Subject: "Química", NoteType: catalog.TypeOther, UploadedAt: old},
			profile: &profile.Profile{Interests: []string{"Química"}},
			want:    "Es de tu interés: Química",
		},
		{
			name: "every reason in order",
			note: note.Note{
				Subject:       "Física I",
				NoteType:      catalog.TypeSolvedExercise,
				UploadedAt:    testNow.AddDate(0, 0, -2),
				DownloadCount: 35,
				Rating:        note.Rating{Average: 4.5, Count: 8},
			},
			profile: &profile.Profile{
				Enrolled:     []string{"Física I"},
				StudyMethods: []string{catalog.MethodVisual, catalog.MethodExercises, catalog.MethodPractice},
			},
			want: "Estás cursando Física I • Muy bien valorado (4.5/5) • Compatible con tu método de estudio: Ejercicios • Popular: 35 descargas • Contenido reciente",
		},
		{
			name:    "rating needs enough votes",
			note:    note.Note{Subject: "Química", NoteType: catalog.TypeOther, UploadedAt: old, Rating: note.Rating{Average: 5, Count: 2}},
			profile: &profile.Profile{},
			want:    FallbackReason,
		},
		{
			name:    "nil profile",
			note:    note.Note{Subject: "Química", NoteType: catalog.TypeSummary, UploadedAt: old, DownloadCount: 20},
			profile: nil,
			want:    "Popular: 20 descargas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(&tt.note, tt.profile, testNow); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
