package domain

import (
	"github.com/yungbote/lessonplan-backend/internal/domain/curriculum"
	"github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

type (
	Board            = curriculum.Board
	Class            = curriculum.Class
	Subject          = curriculum.Subject
	Chapter          = curriculum.Chapter
	KeyPoint         = curriculum.KeyPoint
	KeyPointContent  = curriculum.KeyPointContent
	KeyPointID       = curriculum.KeyPointID
	KeyPointDetail   = curriculum.KeyPointDetail
	CurriculumNames  = curriculum.Names
	CurriculumLookup = curriculum.Lookup

	PlanInput       = lessonplan.PlanInput
	PlanOutput      = lessonplan.PlanOutput
	SessionMap      = lessonplan.SessionMap
	SessionContent  = lessonplan.SessionContent
	SessionSummary  = lessonplan.SessionSummary
	CacheRepository = lessonplan.CacheRepository
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Board{},
		&Class{},
		&Subject{},
		&Chapter{},
		&KeyPoint{},
		&KeyPointContent{},

		&PlanInput{},
		&PlanOutput{},
		&SessionMap{},
		&SessionContent{},
	}
}
