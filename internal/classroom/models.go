package classroom

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class groups students of one organization under a staff member.
type Class struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID   `bson:"organization_id" json:"organizationId"`
	StaffID        primitive.ObjectID   `bson:"staff_id" json:"staffId"`
	Name           string               `bson:"name" json:"name"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty"`
	StudentIDs     []primitive.ObjectID `bson:"student_ids" json:"-"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// EnrolledStudent is the roster projection of a student.
type EnrolledStudent struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ClassWithStudents is a class plus its resolved roster.
type ClassWithStudents struct {
	Class    *Class            `json:"class"`
	Students []EnrolledStudent `json:"students"`
}

// TestAssignment schedules a published test for a class within a time
// window.
type TestAssignment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TestID         primitive.ObjectID `bson:"test_id" json:"testId"`
	ClassID        primitive.ObjectID `bson:"class_id" json:"classId"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	StartTime      time.Time          `bson:"start_time" json:"startTime"`
	EndTime        time.Time          `bson:"end_time" json:"endTime"`
	MaxAttempts    int                `bson:"max_attempts" json:"maxAttempts"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

type CreateClassRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type EnrollStudentsRequest struct {
	StudentIDs []string `json:"studentIds"`
}

type AssignTestRequest struct {
	TestID      string    `json:"testId"`
	ClassID     string    `json:"classId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	MaxAttempts int       `json:"maxAttempts,omitempty"`
}
