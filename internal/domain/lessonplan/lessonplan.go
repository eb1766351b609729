package lessonplan

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/lessonplan-backend/internal/domain/curriculum"
)

// PlanInput is the durable record of a distinct lesson-plan request,
// keyed by its fingerprint. It is never updated. It owns its PlanOutput and
// SessionMaps; deletion cascades through the cache aggregate, not through
// database constraints.
type PlanInput struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID         int64     `gorm:"column:board_id;not null;index" json:"board_id"`
	ClassID         int64     `gorm:"column:class_id;not null;index" json:"class_id"`
	SubjectID       int64     `gorm:"column:subject_id;not null;index" json:"subject_id"`
	ChapterID       int64     `gorm:"column:chapter_id;not null;index" json:"chapter_id"`
	PlannedSessions int       `gorm:"column:planned_sessions;not null" json:"planned_sessions"`
	InputHash       string    `gorm:"column:input_hash;type:text;not null;uniqueIndex" json:"input_hash"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (PlanInput) TableName() string { return "lesson_plan_inputs" }

// PlanOutput keeps the raw grouping response for an input, written in the
// same transaction as its session maps.
type PlanOutput struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	InputID       int64          `gorm:"column:input_id;not null;uniqueIndex" json:"input_id"`
	ResponseJSON  datatypes.JSON `gorm:"column:response_json;not null" json:"response_json"`
	ModelVersion  string         `gorm:"column:model_version;type:text" json:"model_version,omitempty"`
	PromptVersion string         `gorm:"column:prompt_version;type:text" json:"prompt_version,omitempty"`
	GeneratedAt   time.Time      `gorm:"column:generated_at;not null;autoCreateTime" json:"generated_at"`
}

func (PlanOutput) TableName() string { return "lesson_plan_outputs" }

// SessionMap is one generated session of a plan. Rows are created as a
// batch and never mutated.
type SessionMap struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	InputID       int64          `gorm:"column:input_id;not null;index;uniqueIndex:idx_session_map_input_number" json:"input_id"`
	SessionNumber int            `gorm:"column:session_number;not null;uniqueIndex:idx_session_map_input_number" json:"session_number"`
	SessionTitle  string         `gorm:"column:session_title;type:text;not null" json:"session_title"`
	KPIDs         datatypes.JSON `gorm:"column:kp_ids;not null" json:"kp_ids"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Version       string         `gorm:"column:version;size:50" json:"version,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (SessionMap) TableName() string { return "lesson_plan_session_map" }

func (m *SessionMap) KeyPointIDs() ([]curriculum.KeyPointID, error) {
	if m == nil || len(m.KPIDs) == 0 {
		return nil, nil
	}
	var ids []curriculum.KeyPointID
	if err := json.Unmarshal(m.KPIDs, &ids); err != nil {
		return nil, fmt.Errorf("decode kp_ids of session map %d: %w", m.ID, err)
	}
	return ids, nil
}

func EncodeKeyPointIDs(ids []curriculum.KeyPointID) datatypes.JSON {
	if ids == nil {
		ids = []curriculum.KeyPointID{}
	}
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}

// SessionSummary is the stage-2 payload.
type SessionSummary struct {
	Summary    string   `json:"summary"`
	Objectives []string `json:"objectives"`
}

// SessionContent holds the stage-2 summary and, once stage 3 ran, the
// detailed content. SessionContentJSON is only set after SessionSummaryJSON.
type SessionContent struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID          int64          `gorm:"column:session_id;not null;uniqueIndex" json:"session_id"`
	SessionSummaryJSON datatypes.JSON `gorm:"column:session_summary;not null" json:"session_summary"`
	SessionContentJSON datatypes.JSON `gorm:"column:session_content" json:"session_content,omitempty"`
	Version            string         `gorm:"column:version;size:50" json:"version,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

func (SessionContent) TableName() string { return "lesson_plan_session_content" }

func (c *SessionContent) HasSummary() bool {
	return c != nil && len(c.SessionSummaryJSON) > 0 && string(c.SessionSummaryJSON) != "null"
}

func (c *SessionContent) HasDetail() bool {
	return c != nil && len(c.SessionContentJSON) > 0 && string(c.SessionContentJSON) != "null"
}

func (c *SessionContent) Summary() (SessionSummary, error) {
	var s SessionSummary
	if !c.HasSummary() {
		return s, nil
	}
	if err := json.Unmarshal(c.SessionSummaryJSON, &s); err != nil {
		return s, fmt.Errorf("decode session_summary of session %d: %w", c.SessionID, err)
	}
	if s.Objectives == nil {
		s.Objectives = []string{}
	}
	return s, nil
}

// Detail returns the stored detailed content verbatim, or nil.
func (c *SessionContent) Detail() json.RawMessage {
	if !c.HasDetail() {
		return nil
	}
	return json.RawMessage(c.SessionContentJSON)
}
