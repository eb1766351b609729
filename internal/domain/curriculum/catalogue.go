package curriculum

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// The catalogue is owned by the content-management side of the system;
// this service only reads it.

type Board struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	StateID     *int64 `gorm:"column:state_id;index" json:"state_id,omitempty"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

func (Board) TableName() string { return "boards" }

type Class struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID      *int64 `gorm:"column:board_id;index" json:"board_id,omitempty"`
	Name         string `gorm:"column:name;size:255;not null" json:"name"`
	DisplayOrder int    `gorm:"column:display_order;not null;default:0" json:"display_order"`
	IsActive     bool   `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

func (Class) TableName() string { return "classes" }

type Subject struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID  int64  `gorm:"column:class_id;not null;index" json:"class_id"`
	Name     string `gorm:"column:name;size:255;not null" json:"name"`
	IsActive bool   `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

func (Subject) TableName() string { return "subjects" }

type Chapter struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SubjectID     int64  `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Title         string `gorm:"column:title;size:255;not null" json:"title"`
	Description   string `gorm:"column:description;type:text" json:"description,omitempty"`
	ChapterNumber int    `gorm:"column:chapter_number;not null" json:"chapter_number"`
	IsActive      bool   `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
}

func (Chapter) TableName() string { return "chapters" }

const (
	DifficultyVeryEasy = "Very_Easy"
	DifficultyEasy     = "Easy"
	DifficultyMedium   = "Medium"
	DifficultyHard     = "Hard"
	DifficultyVeryHard = "Very_Hard"
)

const (
	CognitiveRemember   = "Remember"
	CognitiveUnderstand = "Understand"
	CognitiveApply      = "Apply"
	CognitiveAnalyze    = "Analyze"
	CognitiveEvaluate   = "Evaluate"
	CognitiveCreate     = "Create"
)

type KeyPoint struct {
	ID              KeyPointID `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            string     `gorm:"column:code;size:100;not null;uniqueIndex" json:"code"`
	Title           string     `gorm:"column:title;type:text;not null" json:"title"`
	Section         string     `gorm:"column:section;type:text" json:"section,omitempty"`
	ChapterID       int64      `gorm:"column:chapter_id;not null;index" json:"chapter_id"`
	DifficultyLevel string     `gorm:"column:difficulty_level;size:32;not null" json:"difficulty_level"`
	CognitiveLevel  string     `gorm:"column:cognitive_level;size:32;not null" json:"cognitive_level"`
	SkillIntent     string     `gorm:"column:skill_intent;size:32" json:"skill_intent,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (KeyPoint) TableName() string { return "key_points" }

// KeyPointContent stores generated pedagogical content for a key point.
// Several versions may exist; only active rows are considered.
type KeyPointContent struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	KeyPointID    KeyPointID     `gorm:"column:key_point_id;not null;index" json:"key_point_id"`
	Content       datatypes.JSON `gorm:"column:content;not null" json:"content"`
	ModelVersion  string         `gorm:"column:model_version;size:50" json:"model_version,omitempty"`
	PromptVersion string         `gorm:"column:prompt_version;size:50" json:"prompt_version,omitempty"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (KeyPointContent) TableName() string { return "key_point_content" }

// KeyPointDetail is a key point joined with its active structured content.
type KeyPointDetail struct {
	ID             KeyPointID
	Title          string
	Difficulty     string
	CognitiveLevel string
	Content        map[string]any
}

var descriptionKeys = []string{"description", "explanation", "summary"}

// Description pulls a human readable description out of the structured
// content, if one is present.
func (d KeyPointDetail) Description() string {
	for _, k := range descriptionKeys {
		if s, ok := d.Content[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// DecodeContent tolerates empty or malformed JSON by returning nil.
func DecodeContent(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// Names are the hierarchy names the generation service is prompted with.
type Names struct {
	Board   string
	Class   string
	Subject string
	Chapter string
}
