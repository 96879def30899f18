// Package catalog contains the static domain tables: note types, study
// methods, which methods suit each note type, note states and complexity levels.
package catalog

import (
	"slices"

	"github.com/miespacioubb/miespacio/internal/similarity"
)

const (
	TypeSummary        = "Resumen"
	TypeSolvedExercise = "Ejercicios resueltos"
	TypeConceptMap     = "Mapa conceptual"
	TypeStudyGuide     = "Guía de estudio"
	TypeClassNotes     = "Apuntes de clase"
	TypeFormulary      = "Formulario"
	TypeSolvedExam     = "Prueba resuelta"
	TypePresentation   = "Presentación"
	TypeLab            = "Laboratorio"
	TypeOther          = "Otro"
)

const (
	MethodReading      = "Lectura"
	MethodPractice     = "Práctica"
	MethodVisual       = "Visual"
	MethodSummaries    = "Resúmenes"
	MethodExercises    = "Ejercicios"
	MethodMindMaps     = "Mapas mentales"
	MethodAuditory     = "Auditivo"
	MethodGroup        = "Grupal"
	MethodMemorization = "Memorización"
)

const (
	StateActive      = "Activo"
	StateSuspended   = "Suspendido"
	StateUnderReview = "Bajo Revisión"
)

const (
	LevelBasic        = "Básico"
	LevelIntermediate = "Intermedio"
	LevelAdvanced     = "Avanzado"
)

const MaxTags = 5

var NoteTypes = []string{
	TypeSummary, TypeSolvedExercise, TypeConceptMap, TypeStudyGuide, TypeClassNotes,
	TypeFormulary, TypeSolvedExam, TypePresentation, TypeLab, TypeOther,
}

var StudyMethods = []string{
	MethodReading, MethodPractice, MethodVisual, MethodSummaries, MethodExercises,
	MethodMindMaps, MethodAuditory, MethodGroup, MethodMemorization,
}

var States = []string{StateActive, StateSuspended, StateUnderReview}

var ComplexityLevels = []string{LevelBasic, LevelIntermediate, LevelAdvanced}

var compatibleMethods = map[string][]string{
	TypeSummary:        {MethodReading, MethodSummaries, MethodMemorization},
	TypeSolvedExercise: {MethodPractice, MethodExercises},
	TypeConceptMap:     {MethodVisual, MethodMindMaps, MethodSummaries},
	TypeStudyGuide:     {MethodReading, MethodPractice, MethodGroup},
	TypeClassNotes:     {MethodReading, MethodAuditory, MethodMemorization},
	TypeFormulary:      {MethodMemorization, MethodPractice, MethodSummaries},
	TypeSolvedExam:     {MethodPractice, MethodExercises, MethodGroup},
	TypePresentation:   {MethodVisual, MethodAuditory},
	TypeLab:            {MethodPractice, MethodGroup},
}

// CompatibleMethods returns the study methods a note type supports. Unknown
// types have none.
func CompatibleMethods(noteType string) []string {
	for t, methods := range compatibleMethods {
		if similarity.Normalize(t) == similarity.Normalize(noteType) {
			return slices.Clone(methods)
		}
	}
	return nil
}

func ValidNoteType(s string) bool        { return contains(NoteTypes, s) }
func ValidStudyMethod(s string) bool     { return contains(StudyMethods, s) }
func ValidState(s string) bool           { return contains(States, s) }
func ValidComplexityLevel(s string) bool { return s == "" || contains(ComplexityLevels, s) }

func contains(values []string, s string) bool {
	_, ok := canonical(values, s)
	return ok
}

// CanonicalNoteType, CanonicalState and CanonicalComplexityLevel return the
// table spelling of s, matched ignoring case and accents. Unknown values are
// returned unchanged.
func CanonicalNoteType(s string) string        { return canonicalOr(NoteTypes, s) }
func CanonicalState(s string) string           { return canonicalOr(States, s) }
func CanonicalComplexityLevel(s string) string { return canonicalOr(ComplexityLevels, s) }

func canonicalOr(values []string, s string) string {
	if v, ok := canonical(values, s); ok {
		return v
	}
	return s
}

func canonical(values []string, s string) (string, bool) {
	n := similarity.Normalize(s)
	for _, v := range values {
		if similarity.Normalize(v) == n {
			return v, true
		}
	}
	return "", false
}
