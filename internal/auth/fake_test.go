package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ExamPortal/internal/notification"
)

// fakeMailer records enqueued emails instead of sending them.
type fakeMailer struct {
	sent []notification.Email
}

func (m *fakeMailer) Enqueue(email notification.Email) {
	m.sent = append(m.sent, email)
}

// fakeRepository is an in-memory Repository with the same contract as the
// Mongo implementation: lookups return (nil, nil) when absent and duplicate
// emails fail with ErrDuplicateEmail.
type fakeRepository struct {
	users    map[string]*User
	orgs     []*Organization
	staff    []*Staff
	students []*Student
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: map[string]*User{}}
}

func (r *fakeRepository) FindUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) FindUserByID(_ context.Context, id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, nil
}

func (r *fakeRepository) ProfileForUser(_ context.Context, user *User) (Profile, error) {
	switch user.Role {
	case RoleOrgAdmin:
		for _, o := range r.orgs {
			if o.AdminUserID == user.ID {
				return Profile{Organization: o}, nil
			}
		}
	case RoleStaff:
		for _, s := range r.staff {
			if s.UserID == user.ID {
				return Profile{Staff: s}, nil
			}
		}
	case RoleStudent:
		for _, s := range r.students {
			if s.UserID == user.ID {
				return Profile{Student: s}, nil
			}
		}
	}
	return Profile{}, nil
}

func (r *fakeRepository) FindStaffByUserID(_ context.Context, userID string) (*Staff, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	for _, s := range r.staff {
		if s.UserID == oid {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) insertUser(user *User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID.Hex()] = user
	return nil
}

func (r *fakeRepository) CreateOrgAdmin(_ context.Context, user *User, org *Organization) error {
	if err := r.insertUser(user); err != nil {
		return err
	}
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	org.AdminUserID = user.ID
	r.orgs = append(r.orgs, org)
	return nil
}

func (r *fakeRepository) CreateStaff(_ context.Context, user *User, staff *Staff) error {
	if err := r.insertUser(user); err != nil {
		return err
	}
	if staff.ID.IsZero() {
		staff.ID = primitive.NewObjectID()
	}
	staff.UserID = user.ID
	r.staff = append(r.staff, staff)
	return nil
}

func (r *fakeRepository) CreateStudent(_ context.Context, user *User, student *Student) error {
	if err := r.insertUser(user); err != nil {
		return err
	}
	if student.ID.IsZero() {
		student.ID = primitive.NewObjectID()
	}
	student.UserID = user.ID
	r.students = append(r.students, student)
	return nil
}

func (r *fakeRepository) user(userID string) (*User, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	u, err := r.user(userID)
	if err != nil {
		return err
	}
	u.LastLogin = &at
	return nil
}

func (r *fakeRepository) StoreOTP(_ context.Context, userID, code string, expiresAt time.Time) error {
	u, err := r.user(userID)
	if err != nil {
		return err
	}
	u.OTPCode = code
	u.OTPExpiresAt = &expiresAt
	u.IsVerified = false
	return nil
}

func (r *fakeRepository) ClearOTP(_ context.Context, userID string, markVerified bool) error {
	u, err := r.user(userID)
	if err != nil {
		return err
	}
	u.OTPCode = ""
	u.OTPExpiresAt = nil
	if markVerified {
		u.IsVerified = true
	}
	return nil
}

func (r *fakeRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, err := r.user(userID)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	u.OTPCode = ""
	u.OTPExpiresAt = nil
	return nil
}
