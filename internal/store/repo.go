package store

import (
	"context"
	"errors"

	"github.com/CodBad25/oral-dnb/internal/session"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrMissingFields = errors.New("missing required fields")
)

// Store is the remote tier contract the core persists through.
// Failures are surfaced as errors and logged by callers; there is no
// automatic retry, since the local cache always holds an independent draft.
type Store interface {
	// Evaluations.
	Create(ctx context.Context, ownerID, juryNumber string, state session.EvaluationState) (string, error)
	Update(ctx context.Context, id string, state session.EvaluationState) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Entry, error)
	ListForOwner(ctx context.Context, ownerID string) ([]Entry, error)
	ListAll(ctx context.Context) ([]Entry, error)
	ListByJury(ctx context.Context, juryNumber string) ([]Entry, error)
	JuryNumbers(ctx context.Context) ([]string, error)

	// Cross-device draft resume.
	SaveDraft(ctx context.Context, userID string, state session.EvaluationState) error
	LoadDraft(ctx context.Context, userID string) (session.EvaluationState, error)
	ClearDraft(ctx context.Context, userID string) error

	// Profiles.
	CreateProfile(ctx context.Context, p Profile) error
	ProfileByEmail(ctx context.Context, email string) (Profile, error)
	ProfileByID(ctx context.Context, id string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
}
