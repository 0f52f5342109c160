package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role determines which profile relation is attached to a user and what the
// user is allowed to do.
type Role string

const (
	RoleOrgAdmin Role = "ORG_ADMIN"
	RoleStaff    Role = "STAFF"
	RoleStudent  Role = "STUDENT"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleOrgAdmin, RoleStaff, RoleStudent:
		return true
	}
	return false
}

// User is the identity record. The password hash and OTP fields never leave
// the server.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	IsVerified   bool               `bson:"is_verified" json:"isVerified"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	OTPCode      string             `bson:"otp_code,omitempty" json:"-"`
	OTPExpiresAt *time.Time         `bson:"otp_expires_at,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Organization is the tenant root, created 1:1 with its admin user.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Domain      string             `bson:"domain,omitempty" json:"domain,omitempty"`
	AdminUserID primitive.ObjectID `bson:"admin_user_id" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// Staff is the tenant-scoped profile of a STAFF user.
type Staff struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"userId"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	Department     string             `bson:"department,omitempty" json:"department,omitempty"`
	Position       string             `bson:"position,omitempty" json:"position,omitempty"`
	Permissions    map[string]bool    `bson:"permissions" json:"permissions"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

// Student is the tenant-scoped profile of a STUDENT user.
type Student struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID     `bson:"user_id" json:"userId"`
	OrganizationID primitive.ObjectID     `bson:"organization_id" json:"organizationId"`
	StudentID      string                 `bson:"student_id" json:"studentId"`
	CreatedBy      primitive.ObjectID     `bson:"created_by" json:"createdBy"`
	Metadata       map[string]interface{} `bson:"metadata" json:"metadata"`
	CreatedAt      time.Time              `bson:"created_at" json:"createdAt"`
}

// Profile is the tagged union of the three role-specific relations. Exactly
// one field is populated, matching the user's role.
type Profile struct {
	Organization *Organization `json:"organization,omitempty"`
	Staff        *Staff        `json:"staff,omitempty"`
	Student      *Student      `json:"student,omitempty"`
}

// OrganizationID resolves the tenant id from whichever relation is
// populated. Empty when none is.
func (p Profile) OrganizationID() string {
	switch {
	case p.Organization != nil:
		return p.Organization.ID.Hex()
	case p.Staff != nil:
		return p.Staff.OrganizationID.Hex()
	case p.Student != nil:
		return p.Student.OrganizationID.Hex()
	}
	return ""
}

// TokenPair is what every successful credential exchange returns. ExpiresIn
// is the access token lifetime in milliseconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RegisterOrgRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	OrganizationName string `json:"organizationName"`
	Domain           string `json:"domain,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateStaffRequest struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Department     string          `json:"department,omitempty"`
	Position       string          `json:"position,omitempty"`
	Permissions    map[string]bool `json:"permissions,omitempty"`
	OrganizationID string          `json:"organizationId,omitempty"`
}

type CreateStudentRequest struct {
	Email          string                 `json:"email"`
	FirstName      string                 `json:"firstName"`
	LastName       string                 `json:"lastName"`
	StudentID      string                 `json:"studentId"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	OrganizationID string                 `json:"organizationId,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
