package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CodBad25/oral-dnb/internal/score"
	"github.com/CodBad25/oral-dnb/internal/session"
)

// SQLStore implements Store over database/sql, working against both
// the sqlite and postgres schemas.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func marshalState(state session.EvaluationState) (jury, candidate, scores string, timers sql.NullString, err error) {
	jb, err := json.Marshal(state.Jury)
	if err != nil {
		return "", "", "", timers, err
	}
	cb, err := json.Marshal(state.Candidate)
	if err != nil {
		return "", "", "", timers, err
	}
	if state.Scores == nil {
		state.Scores = score.Map{}
	}
	sb, err := json.Marshal(state.Scores)
	if err != nil {
		return "", "", "", timers, err
	}
	if state.Timers != nil {
		tb, err := json.Marshal(state.Timers)
		if err != nil {
			return "", "", "", timers, err
		}
		timers = sql.NullString{String: string(tb), Valid: true}
	}
	return string(jb), string(cb), string(sb), timers, nil
}

func (s *SQLStore) Create(ctx context.Context, ownerID, juryNumber string, state session.EvaluationState) (string, error) {
	jury, candidate, scores, timers, err := marshalState(state)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id,user_id,jury_number,jury_info,candidate_info,scores,comments,timers,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, ownerID, juryNumber, jury, candidate, scores, state.Comments, timers, now, now)
	if err != nil {
		return "", fmt.Errorf("create evaluation: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, state session.EvaluationState) error {
	jury, candidate, scores, timers, err := marshalState(state)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE evaluations SET jury_info=$1, candidate_info=$2, scores=$3, comments=$4, timers=$5, updated_at=$6 WHERE id=$7`,
		jury, candidate, scores, state.Comments, timers, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const entryCols = `id,user_id,jury_number,jury_info,candidate_info,scores,comments,timers,created_at,updated_at`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var (
		e                      Entry
		jury, candidate, score string
		timers                 sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.JuryNumber, &jury, &candidate, &score,
		&e.State.Comments, &timers, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(jury), &e.State.Jury); err != nil {
		return Entry{}, fmt.Errorf("evaluation %s: jury_info: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(candidate), &e.State.Candidate); err != nil {
		return Entry{}, fmt.Errorf("evaluation %s: candidate_info: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(score), &e.State.Scores); err != nil {
		return Entry{}, fmt.Errorf("evaluation %s: scores: %w", e.ID, err)
	}
	if timers.Valid {
		if err := json.Unmarshal([]byte(timers.String), &e.State.Timers); err != nil {
			return Entry{}, fmt.Errorf("evaluation %s: timers: %w", e.ID, err)
		}
	}
	// Persisted evaluations always reopen at the summary.
	e.State.CurrentStep = session.StepSummary
	e.State.RemoteID = e.ID
	return e, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM evaluations WHERE id=$1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *SQLStore) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListForOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryCols+` FROM evaluations WHERE user_id=$1 ORDER BY created_at`, ownerID)
}

func (s *SQLStore) ListAll(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryCols+` FROM evaluations ORDER BY created_at`)
}

func (s *SQLStore) ListByJury(ctx context.Context, juryNumber string) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryCols+` FROM evaluations WHERE jury_number=$1 ORDER BY created_at`, juryNumber)
}

func (s *SQLStore) JuryNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT jury_number FROM evaluations ORDER BY jury_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var jn string
		if err := rows.Scan(&jn); err != nil {
			return nil, err
		}
		out = append(out, jn)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveDraft(ctx context.Context, userID string, state session.EvaluationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO current_evaluations (user_id,state,updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id) DO UPDATE SET state=EXCLUDED.state, updated_at=EXCLUDED.updated_at`,
		userID, string(data), time.Now().Unix())
	return err
}

func (s *SQLStore) LoadDraft(ctx context.Context, userID string) (session.EvaluationState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM current_evaluations WHERE user_id=$1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.EvaluationState{}, ErrNotFound
	}
	if err != nil {
		return session.EvaluationState{}, err
	}
	var st session.EvaluationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return session.EvaluationState{}, fmt.Errorf("draft for %s: %w", userID, err)
	}
	return st, nil
}

func (s *SQLStore) ClearDraft(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM current_evaluations WHERE user_id=$1`, userID)
	return err
}

func (s *SQLStore) CreateProfile(ctx context.Context, p Profile) error {
	if p.Email == "" || p.PasswordHash == "" {
		return ErrMissingFields
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE email=$1`, p.Email).Scan(&exists)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id,email,password_hash,role,jury_number,display_name,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Email, p.PasswordHash, string(p.Role), p.JuryNumber, p.DisplayName, p.CreatedAt)
	return err
}

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var (
		p    Profile
		role string
	)
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &role, &p.JuryNumber, &p.DisplayName, &p.CreatedAt); err != nil {
		return Profile{}, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return Profile{}, err
	}
	p.Role = r
	return p, nil
}

const profileCols = `id,email,password_hash,role,jury_number,display_name,created_at`

func (s *SQLStore) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE email=$1`, email)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ProfileByID(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE id=$1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
