package curriculum

import "context"

// Lookup resolves catalogue references for the generation pipeline.
// Missing hierarchy entities are reported as not_found errors.
type Lookup interface {
	ResolveNames(ctx context.Context, boardID, classID, subjectID, chapterID int64) (Names, error)
	// ChapterKeyPoints returns every key point of the chapter in id order.
	ChapterKeyPoints(ctx context.Context, chapterID int64) ([]KeyPointDetail, error)
	// KeyPoints resolves ids in the given order, skipping ids that do not exist.
	KeyPoints(ctx context.Context, ids []KeyPointID) ([]KeyPointDetail, error)
}
