package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"
)

// Curriculum is a seeded board/class/subject/chapter chain.
type Curriculum struct {
	Board   *types.Board
	Class   *types.Class
	Subject *types.Subject
	Chapter *types.Chapter
}

// CurriculumIDs pins the primary keys of a seeded chain. Zero values let the
// database assign ids.
type CurriculumIDs struct {
	Board   int64
	Class   int64
	Subject int64
	Chapter int64
}

func SeedCurriculum(tb testing.TB, ctx context.Context, tx *gorm.DB, ids CurriculumIDs) Curriculum {
	tb.Helper()
	db := tx.WithContext(ctx)

	board := &types.Board{ID: ids.Board, Name: fmt.Sprintf("CBSE-%d", ids.Board), IsActive: true}
	if err := db.Create(board).Error; err != nil {
		tb.Fatalf("seed board: %v", err)
	}
	class := &types.Class{ID: ids.Class, BoardID: &board.ID, Name: "Class 7", IsActive: true}
	if err := db.Create(class).Error; err != nil {
		tb.Fatalf("seed class: %v", err)
	}
	subject := &types.Subject{ID: ids.Subject, ClassID: class.ID, Name: "Science", IsActive: true}
	if err := db.Create(subject).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	chapter := &types.Chapter{ID: ids.Chapter, SubjectID: subject.ID, Title: "Nutrition in Plants", ChapterNumber: 1, IsActive: true}
	if err := db.Create(chapter).Error; err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	return Curriculum{Board: board, Class: class, Subject: subject, Chapter: chapter}
}

func SeedKeyPoint(tb testing.TB, ctx context.Context, tx *gorm.DB, chapterID int64, title string) *types.KeyPoint {
	tb.Helper()
	var n int64
	if err := tx.WithContext(ctx).Model(&types.KeyPoint{}).Count(&n).Error; err != nil {
		tb.Fatalf("count key points: %v", err)
	}
	kp := &types.KeyPoint{
		Code:            fmt.Sprintf("KP-%d-%d", chapterID, n+1),
		Title:           title,
		ChapterID:       chapterID,
		DifficultyLevel: "Medium",
		CognitiveLevel:  "Understand",
	}
	if err := tx.WithContext(ctx).Create(kp).Error; err != nil {
		tb.Fatalf("seed key point: %v", err)
	}
	return kp
}

func SeedKeyPointContent(tb testing.TB, ctx context.Context, tx *gorm.DB, kpID types.KeyPointID, content map[string]any) *types.KeyPointContent {
	tb.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		tb.Fatalf("encode content: %v", err)
	}
	row := &types.KeyPointContent{
		KeyPointID: kpID,
		Content:    datatypes.JSON(raw),
		IsActive:   true,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed key point content: %v", err)
	}
	return row
}

func SeedPlanInput(tb testing.TB, ctx context.Context, tx *gorm.DB, fingerprint string) *types.PlanInput {
	tb.Helper()
	in := &types.PlanInput{
		BoardID:         1,
		ClassID:         2,
		SubjectID:       3,
		ChapterID:       4,
		PlannedSessions: 3,
		InputHash:       fingerprint,
	}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed plan input: %v", err)
	}
	return in
}

func SeedSessionMap(tb testing.TB, ctx context.Context, tx *gorm.DB, inputID int64, number int, kpIDs ...types.KeyPointID) *types.SessionMap {
	tb.Helper()
	sm := &types.SessionMap{
		InputID:       inputID,
		SessionNumber: number,
		SessionTitle:  fmt.Sprintf("Session %d", number),
		KPIDs:         lessonplan.EncodeKeyPointIDs(kpIDs),
		IsActive:      true,
	}
	if err := tx.WithContext(ctx).Create(sm).Error; err != nil {
		tb.Fatalf("seed session map: %v", err)
	}
	return sm
}
