package exam

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
)

// Test is an authored exam. It must be published before it can be assigned
// to a class.
type Test struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID  primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	CreatorStaffID  primitive.ObjectID `bson:"creator_staff_id" json:"creatorStaffId"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	DurationMinutes int                `bson:"duration_minutes" json:"durationMinutes"`
	TotalMarks      int                `bson:"total_marks" json:"totalMarks"`
	PassingMarks    int                `bson:"passing_marks" json:"passingMarks"`
	Instructions    string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	IsPublished     bool               `bson:"is_published" json:"isPublished"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Option struct {
	OptionText string `bson:"option_text" json:"optionText"`
	IsCorrect  bool   `bson:"is_correct" json:"isCorrect"`
	OrderIndex int    `bson:"order_index" json:"orderIndex"`
}

type Question struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TestID           primitive.ObjectID `bson:"test_id" json:"testId"`
	QuestionText     string             `bson:"question_text" json:"questionText"`
	QuestionType     QuestionType       `bson:"question_type" json:"questionType"`
	Marks            int                `bson:"marks" json:"marks"`
	TimeLimitSeconds int                `bson:"time_limit_seconds,omitempty" json:"timeLimitSeconds,omitempty"`
	OrderIndex       int                `bson:"order_index" json:"orderIndex"`
	Options          []Option           `bson:"options" json:"options"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
}

// TestWithQuestions is the full authoring view, questions and options
// ordered by orderIndex.
type TestWithQuestions struct {
	Test      *Test       `json:"test"`
	Questions []*Question `json:"questions"`
}

type CreateTestRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	TotalMarks      int    `json:"totalMarks"`
	PassingMarks    int    `json:"passingMarks"`
	Instructions    string `json:"instructions,omitempty"`
}

type CreateOptionRequest struct {
	OptionText string `json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
	OrderIndex int    `json:"orderIndex"`
}

type CreateQuestionRequest struct {
	QuestionText     string                `json:"questionText"`
	QuestionType     QuestionType          `json:"questionType"`
	Marks            int                   `json:"marks"`
	TimeLimitSeconds int                   `json:"timeLimitSeconds,omitempty"`
	OrderIndex       int                   `json:"orderIndex"`
	Options          []CreateOptionRequest `json:"questionOptions"`
}
