package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/miespacioubb/miespacio/internal/database"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or replaces the profile's academic data. Ratings and
// downloads are recorded separately.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	enrolled, err := marshalList(p.Enrolled)
	if err != nil {
		return err
	}
	interests, err := marshalList(p.Interests)
	if err != nil {
		return err
	}
	methods, err := marshalList(p.StudyMethods)
	if err != nil {
		return err
	}
	curriculum, err := json.Marshal(p.Curriculum)
	if err != nil {
		return fmt.Errorf("failed to encode curriculum: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (user_rut, enrolled, interests, curriculum, study_methods, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_rut) DO UPDATE SET
			enrolled = excluded.enrolled,
			interests = excluded.interests,
			curriculum = excluded.curriculum,
			study_methods = excluded.study_methods,
			updated_at = CURRENT_TIMESTAMP
	`, p.UserRut, enrolled, interests, string(curriculum), methods)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, rut string) (*Profile, error) {
	var (
		p                                       Profile
		enrolled, interests, curriculum, methods string
	)
	err := r.db.QueryRow(ctx, `
		SELECT user_rut, enrolled, interests, curriculum, study_methods, updated_at
		FROM profiles WHERE user_rut = ?
	`, rut).Scan(&p.UserRut, &enrolled, &interests, &curriculum, &methods, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(enrolled), &p.Enrolled); err != nil {
		return nil, fmt.Errorf("failed to decode enrolled subjects: %w", err)
	}
	if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
		return nil, fmt.Errorf("failed to decode interests: %w", err)
	}
	if err := json.Unmarshal([]byte(curriculum), &p.Curriculum); err != nil {
		return nil, fmt.Errorf("failed to decode curriculum: %w", err)
	}
	if err := json.Unmarshal([]byte(methods), &p.StudyMethods); err != nil {
		return nil, fmt.Errorf("failed to decode study methods: %w", err)
	}

	if p.RatedNotes, err = r.ratings(ctx, rut); err != nil {
		return nil, err
	}
	if p.DownloadedNoteIDs, err = r.downloads(ctx, rut); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddRating records (or replaces) the user's 1-7 rating of a note.
func (r *Repository) AddRating(ctx context.Context, rut string, noteID int64, rating int) error {
	if rating < 1 || rating > 7 {
		return fmt.Errorf("rating %d out of 1-7", rating)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO note_ratings (note_id, user_rut, rating) VALUES (?, ?, ?)
		ON CONFLICT(note_id, user_rut) DO UPDATE SET rating = excluded.rating, rated_at = CURRENT_TIMESTAMP
	`, noteID, rut, rating)
	if err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	return nil
}

// AddDownload records the first download of a note by the user and bumps the
// note's download counter.
func (r *Repository) AddDownload(ctx context.Context, rut string, noteID int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO note_downloads (note_id, user_rut) VALUES (?, ?)`, noteID, rut)
		if err != nil {
			return fmt.Errorf("failed to record download: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE notes SET download_count = download_count + 1 WHERE id = ?`, noteID)
		return err
	})
}

func (r *Repository) ratings(ctx context.Context, rut string) ([]RatedNote, error) {
	rows, err := r.db.Query(ctx, `SELECT note_id, rating FROM note_ratings WHERE user_rut = ? ORDER BY rated_at`, rut)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var rated []RatedNote
	for rows.Next() {
		var rn RatedNote
		if err := rows.Scan(&rn.NoteID, &rn.Rating); err != nil {
			return nil, err
		}
		rated = append(rated, rn)
	}
	return rated, rows.Err()
}

func (r *Repository) downloads(ctx context.Context, rut string) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT note_id FROM note_downloads WHERE user_rut = ? ORDER BY downloaded_at`, rut)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}
