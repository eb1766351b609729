package lessonplan

import (
	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	types "github.com/yungbote/lessonplan-backend/internal/domain"
)

type (
	CacheRepository  = types.CacheRepository
	CurriculumLookup = types.CurriculumLookup
	GenerationClient = generation.Client
)
