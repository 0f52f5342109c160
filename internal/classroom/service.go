package classroom

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
)

// Service implements class roster management for one organization at a
// time; tenant scoping of the route is enforced by the middleware chain,
// staff membership is re-checked here.
type Service struct {
	repo   Repository
	users  auth.Repository
	logger *zap.Logger
}

func NewService(repo Repository, users auth.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// staffInOrg resolves the acting user's staff profile and confirms it
// belongs to the target organization.
func (s *Service) staffInOrg(ctx context.Context, actor *auth.Claims, orgID primitive.ObjectID) (*auth.Staff, error) {
	staff, err := s.users.FindStaffByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if staff == nil || staff.OrganizationID != orgID {
		return nil, apperror.New(http.StatusForbidden, apperror.CodeInsufficientPermissions,
			"You are not a valid staff member of this organization")
	}
	return staff, nil
}

func (s *Service) CreateClass(ctx context.Context, actor *auth.Claims, organizationID string, req CreateClassRequest) (*Class, error) {
	if req.Name == "" {
		return nil, apperror.Validation("name is required")
	}
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}

	staff, err := s.staffInOrg(ctx, actor, orgID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	class := &Class{
		OrganizationID: orgID,
		StaffID:        staff.ID,
		Name:           req.Name,
		Description:    req.Description,
		StudentIDs:     []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return nil, err
	}

	s.logger.Info("class created",
		zap.String("organization_id", organizationID),
		zap.String("class_id", class.ID.Hex()),
	)
	return class, nil
}

func (s *Service) ListClasses(ctx context.Context, organizationID string) ([]ClassWithStudents, error) {
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}

	classes, err := s.repo.ListClasses(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := make([]ClassWithStudents, 0, len(classes))
	for _, class := range classes {
		students, err := s.repo.StudentsByIDs(ctx, class.StudentIDs)
		if err != nil {
			return nil, err
		}
		result = append(result, ClassWithStudents{Class: class, Students: students})
	}
	return result, nil
}

// EnrollStudents adds students to a class roster; already-enrolled students
// are skipped silently.
func (s *Service) EnrollStudents(ctx context.Context, organizationID, classID string, req EnrollStudentsRequest) (int, error) {
	if len(req.StudentIDs) == 0 {
		return 0, apperror.Validation("studentIds is required")
	}
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return 0, apperror.Validation("invalid organization id")
	}
	cid, err := primitive.ObjectIDFromHex(classID)
	if err != nil {
		return 0, apperror.Validation("invalid class id")
	}

	class, err := s.repo.FindClass(ctx, orgID, cid)
	if err != nil {
		return 0, err
	}
	if class == nil {
		return 0, apperror.NotFound("Class not found or does not belong to your organization")
	}

	studentIDs := make([]primitive.ObjectID, 0, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperror.Validation("invalid student id: " + id)
		}
		studentIDs = append(studentIDs, oid)
	}

	return s.repo.AddStudents(ctx, cid, studentIDs)
}

func (s *Service) RemoveStudent(ctx context.Context, organizationID, classID, studentID string) error {
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return apperror.Validation("invalid organization id")
	}
	cid, err := primitive.ObjectIDFromHex(classID)
	if err != nil {
		return apperror.Validation("invalid class id")
	}
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return apperror.Validation("invalid student id")
	}

	class, err := s.repo.FindClass(ctx, orgID, cid)
	if err != nil {
		return err
	}
	if class == nil {
		return apperror.NotFound("Class not found or does not belong to your organization")
	}

	removed, err := s.repo.RemoveStudent(ctx, cid, sid)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("Student was not found in this class")
	}
	return nil
}

// AssignTest schedules a published test for a class within a time window.
func (s *Service) AssignTest(ctx context.Context, organizationID string, req AssignTestRequest) (*TestAssignment, error) {
	orgID, err := primitive.ObjectIDFromHex(organizationID)
	if err != nil {
		return nil, apperror.Validation("invalid organization id")
	}
	testID, err := primitive.ObjectIDFromHex(req.TestID)
	if err != nil {
		return nil, apperror.Validation("invalid test id")
	}
	classID, err := primitive.ObjectIDFromHex(req.ClassID)
	if err != nil {
		return nil, apperror.Validation("invalid class id")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperror.Validation("endTime must be after startTime")
	}

	published, err := s.repo.TestIsPublished(ctx, orgID, testID)
	if err != nil {
		return nil, err
	}
	if !published {
		return nil, apperror.NotFound("Test not found, or it has not been published")
	}

	class, err := s.repo.FindClass(ctx, orgID, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, apperror.NotFound("Class not found or does not belong to your organization")
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	assignment := &TestAssignment{
		TestID:         testID,
		ClassID:        classID,
		OrganizationID: orgID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		MaxAttempts:    maxAttempts,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.Info("test assigned to class",
		zap.String("test_id", req.TestID),
		zap.String("class_id", req.ClassID),
	)
	return assignment, nil
}
