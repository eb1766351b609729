package generation

import (
	"encoding/json"

	"github.com/yungbote/lessonplan-backend/internal/domain/curriculum"
)

// Capability names one generation endpoint.
type Capability string

const (
	CapabilityGroup   Capability = "group"
	CapabilitySummary Capability = "summary"
	CapabilityDetail  Capability = "detail"
)

// envelope is the wire shape shared by every capability.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Key point ids go out as strings; responses may use either form.
type KnowledgePoint struct {
	KPID           string   `json:"kp_id"`
	Title          string   `json:"title"`
	Difficulty     string   `json:"difficulty"`
	CognitiveLevel string   `json:"cognitive_level"`
	Prerequisites  []string `json:"prerequisites"`
}

type SummaryKnowledgePoint struct {
	KPID           string `json:"kp_id"`
	Title          string `json:"title"`
	Difficulty     string `json:"difficulty"`
	CognitiveLevel string `json:"cognitive_level"`
}

type GroupRequest struct {
	Board            string           `json:"board"`
	Chapter          string           `json:"chapter"`
	Class            string           `json:"class"`
	Subject          string           `json:"subject"`
	NumberOfSessions int              `json:"number_of_sessions"`
	SessionDuration  string           `json:"session_duration"`
	KnowledgePoints  []KnowledgePoint `json:"knowledge_points"`
}

type GroupedSession struct {
	SessionNumber int                     `json:"session_number"`
	SessionTitle  string                  `json:"session_title"`
	KPIDs         []curriculum.KeyPointID `json:"kp_ids"`
}

type GroupMetadata struct {
	Chapter       string `json:"chapter"`
	Subject       string `json:"subject"`
	Class         string `json:"class"`
	TotalSessions int    `json:"total_sessions"`
	TotalKPs      int    `json:"total_kps"`
}

type GroupResponse struct {
	Sessions []GroupedSession `json:"sessions"`
	Metadata GroupMetadata    `json:"metadata"`
}

type SummaryRequest struct {
	Board           string                  `json:"board"`
	Chapter         string                  `json:"chapter"`
	Class           string                  `json:"class"`
	Subject         string                  `json:"subject"`
	SessionTitle    string                  `json:"session_title"`
	KnowledgePoints []SummaryKnowledgePoint `json:"knowledge_points"`
}

type SummaryResponse struct {
	Summary    string   `json:"summary"`
	Objectives []string `json:"objectives"`
}

type DetailKeyPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DetailRequest struct {
	SubjectName string           `json:"subject_name"`
	ClassName   string           `json:"class_name"`
	Title       string           `json:"title"`
	Duration    string           `json:"duration"`
	Summary     string           `json:"summary"`
	Objectives  []string         `json:"objectives"`
	KPList      []DetailKeyPoint `json:"kp_list"`
}

// DetailResponse carries the opaque content object verbatim.
type DetailResponse struct {
	Content json.RawMessage `json:"content"`
}
