package exam

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
)

type Service struct {
	repo   Repository
	users  auth.Repository
	logger *zap.Logger
}

func NewService(repo Repository, users auth.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// CreateTest authors a new unpublished test. The creator must be a staff
// member of the target organization.
func (s *Service) CreateTest(ctx context.Context, actor *auth.Claims, organizationID string, req CreateTestRequest) (*Test, error) {
	if req.Title == "" || req.DurationMinutes <= 0 {
		return nil, apperror.Validation("title and a positive durationMinutes are required")
	}
	if req.PassingMarks > req.TotalMarks {
		return nil, apperror.Validation("passingMarks cannot exceed totalMarks")
	}
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}

	staff, err := s.users.FindStaffByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if staff == nil || staff.OrganizationID != orgID {
		return nil, apperror.New(http.StatusForbidden, apperror.CodeInsufficientPermissions,
			"Test creator must be a staff member of the organization")
	}

	now := time.Now().UTC()
	test := &Test{
		OrganizationID:  orgID,
		CreatorStaffID:  staff.ID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		PassingMarks:    req.PassingMarks,
		Instructions:    req.Instructions,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateTest(ctx, test); err != nil {
		return nil, err
	}

	s.logger.Info("test created",
		zap.String("organization_id", organizationID),
		zap.String("test_id", test.ID.Hex()),
	)
	return test, nil
}

// AddQuestion appends a question with its options to an existing test.
func (s *Service) AddQuestion(ctx context.Context, organizationID, testID string, req CreateQuestionRequest) (*Question, error) {
	if req.QuestionText == "" || req.Marks <= 0 {
		return nil, apperror.Validation("questionText and positive marks are required")
	}
	if len(req.Options) == 0 {
		return nil, apperror.Validation("at least one option is required")
	}
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}
	tid, err := primitive.ObjectIDFromHex(testID)
	if err != nil {
		return nil, apperror.Validation("invalid test id")
	}

	test, err := s.repo.FindTest(ctx, orgID, tid)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, apperror.NotFound("Test not found in this organization")
	}

	options := make([]Option, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, Option{
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
			OrderIndex: opt.OrderIndex,
		})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].OrderIndex < options[j].OrderIndex })

	question := &Question{
		TestID:           tid,
		QuestionText:     req.QuestionText,
		QuestionType:     req.QuestionType,
		Marks:            req.Marks,
		TimeLimitSeconds: req.TimeLimitSeconds,
		OrderIndex:       req.OrderIndex,
		Options:          options,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// GetTest returns the test with its questions ordered by orderIndex.
func (s *Service) GetTest(ctx context.Context, organizationID, testID string) (*TestWithQuestions, error) {
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}
	tid, err := primitive.ObjectIDFromHex(testID)
	if err != nil {
		return nil, apperror.Validation("invalid test id")
	}

	test, err := s.repo.FindTest(ctx, orgID, tid)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, apperror.NotFound("Test not found in this organization")
	}

	questions, err := s.repo.ListQuestions(ctx, tid)
	if err != nil {
		return nil, err
	}
	return &TestWithQuestions{Test: test, Questions: questions}, nil
}

// PublishTest makes a test available for assignment.
func (s *Service) PublishTest(ctx context.Context, organizationID, testID string) error {
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return apperror.Validation("invalid organization id")
	}
	tid, err := primitive.ObjectIDFromHex(testID)
	if err != nil {
		return apperror.Validation("invalid test id")
	}

	published, err := s.repo.PublishTest(ctx, orgID, tid)
	if err != nil {
		return err
	}
	if !published {
		return apperror.NotFound("Test not found in this organization")
	}

	s.logger.Info("test published", zap.String("test_id", testID))
	return nil
}
