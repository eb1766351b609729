package lessonplan

import (
	"encoding/json"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
)

// SessionView is one session of a plan as returned to callers. Summary and
// Objectives are only set once the session has been summarized.
type SessionView struct {
	SessionMapID               int64              `json:"session_map_id"`
	SessionNumber              int                `json:"session_number"`
	SessionTitle               string             `json:"session_title"`
	KPIDs                      []types.KeyPointID `json:"kp_ids"`
	Summary                    *string            `json:"summary,omitempty"`
	Objectives                 []string           `json:"objectives,omitempty"`
	IsDetailedContentAvailable bool               `json:"is_detailed_content_available"`
}

type PlanMetadata struct {
	Chapter       string `json:"chapter"`
	Subject       string `json:"subject"`
	Class         string `json:"class"`
	TotalSessions int    `json:"total_sessions"`
	TotalKPs      int    `json:"total_kps"`
}

type GroupResult struct {
	FromCache bool          `json:"from_cache"`
	InputID   int64         `json:"input_id"`
	Sessions  []SessionView `json:"sessions"`
	Metadata  PlanMetadata  `json:"metadata"`
}

type SummaryResult struct {
	FromCache     bool     `json:"from_cache"`
	SessionMapID  int64    `json:"session_map_id"`
	SessionNumber int      `json:"session_number"`
	SessionTitle  string   `json:"session_title"`
	Summary       string   `json:"summary"`
	Objectives    []string `json:"objectives"`
}

type DetailResult struct {
	FromCache bool            `json:"from_cache"`
	SessionID int64           `json:"session_id"`
	Content   json.RawMessage `json:"content"`
}

// SessionDetail is the read-only view of everything cached for a session.
type SessionDetail struct {
	SessionView
	InputID int64           `json:"input_id"`
	Content json.RawMessage `json:"content,omitempty"`
}

func newSessionView(sm *types.SessionMap, content *types.SessionContent) (SessionView, error) {
	ids, err := sm.KeyPointIDs()
	if err != nil {
		return SessionView{}, err
	}
	if ids == nil {
		ids = []types.KeyPointID{}
	}
	view := SessionView{
		SessionMapID:  sm.ID,
		SessionNumber: sm.SessionNumber,
		SessionTitle:  sm.SessionTitle,
		KPIDs:         ids,
	}
	if content.HasSummary() {
		summary, err := content.Summary()
		if err != nil {
			return SessionView{}, err
		}
		view.Summary = &summary.Summary
		view.Objectives = summary.Objectives
	}
	view.IsDetailedContentAvailable = content.HasDetail()
	return view, nil
}

// countKeyPoints counts distinct key point ids across sessions.
func countKeyPoints(sessions []SessionView) int {
	seen := map[types.KeyPointID]struct{}{}
	for _, s := range sessions {
		for _, id := range s.KPIDs {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
