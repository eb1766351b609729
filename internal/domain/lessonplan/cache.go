package lessonplan

import (
	"context"
	"encoding/json"
)

// CacheRepository persists the generated artifacts of every stage. Finders
// return nil, nil when nothing is stored. Each write commits as one unit and
// nothing is retried implicitly.
type CacheRepository interface {
	FindInputByFingerprint(ctx context.Context, fingerprint string) (*PlanInput, error)
	GetInput(ctx context.Context, inputID int64) (*PlanInput, error)
	FindOutput(ctx context.Context, inputID int64) (*PlanOutput, error)
	// FindSessionMaps returns active rows ordered by session_number.
	FindSessionMaps(ctx context.Context, inputID int64) ([]*SessionMap, error)
	CountSessionMaps(ctx context.Context, inputID int64) (int64, error)
	GetSessionMap(ctx context.Context, sessionID int64) (*SessionMap, error)
	FindSessionContent(ctx context.Context, sessionID int64) (*SessionContent, error)
	FindSessionContents(ctx context.Context, sessionIDs []int64) (map[int64]*SessionContent, error)

	// CreateInput fails with a conflict when the fingerprint already exists.
	CreateInput(ctx context.Context, input *PlanInput) (*PlanInput, error)
	// CreateSessionMaps writes the batch and the optional output in one
	// transaction, preserving batch order.
	CreateSessionMaps(ctx context.Context, batch []*SessionMap, output *PlanOutput) ([]*SessionMap, error)
	// UpsertSessionSummary inserts or overwrites the summary. Overwriting
	// clears any detailed content derived from the previous summary.
	UpsertSessionSummary(ctx context.Context, sessionID int64, summary SessionSummary, version string) (*SessionContent, error)
	// SetSessionContent updates an existing row; it never inserts.
	SetSessionContent(ctx context.Context, sessionID int64, content json.RawMessage) (*SessionContent, error)
	// DeleteInput removes the input and everything it owns.
	DeleteInput(ctx context.Context, inputID int64) error
}
