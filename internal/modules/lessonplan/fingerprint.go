package lessonplan

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
)

// PlanRequest identifies one lesson plan. Two requests with the same fields
// share a fingerprint and therefore a cached plan.
type PlanRequest struct {
	BoardID         int64 `json:"board_id"`
	ClassID         int64 `json:"class_id"`
	SubjectID       int64 `json:"subject_id"`
	ChapterID       int64 `json:"chapter_id"`
	PlannedSessions int   `json:"planned_sessions"`
}

func (r PlanRequest) Validate() error {
	const op = "LessonPlan.PlanRequest.Validate"
	var bad []string
	if r.BoardID <= 0 {
		bad = append(bad, "board_id")
	}
	if r.ClassID <= 0 {
		bad = append(bad, "class_id")
	}
	if r.SubjectID <= 0 {
		bad = append(bad, "subject_id")
	}
	if r.ChapterID <= 0 {
		bad = append(bad, "chapter_id")
	}
	if r.PlannedSessions <= 0 {
		bad = append(bad, "planned_sessions")
	}
	if len(bad) > 0 {
		return errs.Validation(op, "must be positive: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Fingerprint is the lowercase hex SHA-256 of
// board_id|class_id|subject_id|chapter_id|planned_sessions.
func Fingerprint(r PlanRequest) string {
	canonical := strings.Join([]string{
		strconv.FormatInt(r.BoardID, 10),
		strconv.FormatInt(r.ClassID, 10),
		strconv.FormatInt(r.SubjectID, 10),
		strconv.FormatInt(r.ChapterID, 10),
		strconv.Itoa(r.PlannedSessions),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
