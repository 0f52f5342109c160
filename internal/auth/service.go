package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/notification"
)

// maxMapKeys bounds the free-form permissions and metadata maps accepted at
// the boundary.
const maxMapKeys = 32

// AuthService composes the credential store, token service, OTP service and
// mail dispatcher into the public auth flows.
type AuthService struct {
	repo   Repository
	tokens *TokenService
	otp    *OTPService
	mailer notification.Mailer
	logger *zap.Logger
}

func NewAuthService(repo Repository, tokens *TokenService, otp *OTPService, mailer notification.Mailer, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, otp: otp, mailer: mailer, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterOrganization creates the tenant root and its admin user in one
// transaction and signs the first token pair.
func (s *AuthService) RegisterOrganization(ctx context.Context, req RegisterOrgRequest) (*User, *Organization, TokenPair, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || req.FirstName == "" || req.OrganizationName == "" {
		return nil, nil, TokenPair{}, apperror.Validation("email, password, firstName and organizationName are required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, TokenPair{}, err
	}

	now := time.Now().UTC()
	user := &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         RoleOrgAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	org := &Organization{
		Name:      req.OrganizationName,
		Domain:    req.Domain,
		CreatedAt: now,
	}

	if err := s.repo.CreateOrgAdmin(ctx, user, org); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, TokenPair{}, apperror.EmailTaken()
		}
		return nil, nil, TokenPair{}, err
	}

	tokens, err := s.tokens.IssuePair(user.ID.Hex(), user.Email, user.Role, org.ID.Hex())
	if err != nil {
		return nil, nil, TokenPair{}, err
	}

	s.logger.Info("organization registered",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
	)
	return user, org, tokens, nil
}

// Login authenticates by email and password. Unknown email, inactive
// account and wrong password all fail identically so responses cannot be
// used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, Profile, TokenPair, error) {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, Profile{}, TokenPair{}, err
	}
	if user == nil || !user.IsActive || !CheckPassword(password, user.PasswordHash) {
		return nil, Profile{}, TokenPair{}, apperror.InvalidCredentials()
	}

	profile, err := s.repo.ProfileForUser(ctx, user)
	if err != nil {
		return nil, Profile{}, TokenPair{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID.Hex(), now); err != nil {
		return nil, Profile{}, TokenPair{}, err
	}
	user.LastLogin = &now

	tokens, err := s.tokens.IssuePair(user.ID.Hex(), user.Email, user.Role, profile.OrganizationID())
	if err != nil {
		return nil, Profile{}, TokenPair{}, err
	}
	return user, profile, tokens, nil
}

// CreateStaff provisions a STAFF user inside the actor's organization with
// a random temporary password delivered by email.
func (s *AuthService) CreateStaff(ctx context.Context, actor *Claims, req CreateStaffRequest) (*User, *Staff, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.FirstName == "" {
		return nil, nil, apperror.Validation("email and firstName are required")
	}
	if len(req.Permissions) > maxMapKeys {
		return nil, nil, apperror.Validation("too many permission entries")
	}
	if req.OrganizationID != "" && req.OrganizationID != actor.OrganizationID {
		return nil, nil, apperror.CrossTenantAccess()
	}
	orgID, err := primitive.ObjectIDFromHex(actor.OrganizationID)
	if err != nil {
		return nil, nil, apperror.CrossTenantAccess()
	}

	tempPassword, err := TempPassword()
	if err != nil {
		return nil, nil, err
	}
	hash, err := HashPassword(tempPassword)
	if err != nil {
		return nil, nil, err
	}

	permissions := req.Permissions
	if permissions == nil {
		permissions = map[string]bool{}
	}

	now := time.Now().UTC()
	user := &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         RoleStaff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	staff := &Staff{
		OrganizationID: orgID,
		Department:     req.Department,
		Position:       req.Position,
		Permissions:    permissions,
		CreatedAt:      now,
	}

	if err := s.repo.CreateStaff(ctx, user, staff); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, apperror.EmailTaken()
		}
		return nil, nil, err
	}

	s.mailer.Enqueue(notification.StaffWelcomeEmail(user.Email, tempPassword))
	s.logger.Info("staff created",
		zap.String("organization_id", actor.OrganizationID),
		zap.String("user_id", user.ID.Hex()),
	)
	return user, staff, nil
}

// CreateStudent provisions a STUDENT user inside the actor's organization.
// The initial password is derived from the external student id, a
// documented weakness of the credential policy, kept as-is.
func (s *AuthService) CreateStudent(ctx context.Context, actor *Claims, req CreateStudentRequest) (*User, *Student, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.FirstName == "" || req.StudentID == "" {
		return nil, nil, apperror.Validation("email, firstName and studentId are required")
	}
	if len(req.Metadata) > maxMapKeys {
		return nil, nil, apperror.Validation("too many metadata entries")
	}
	if req.OrganizationID != "" && req.OrganizationID != actor.OrganizationID {
		return nil, nil, apperror.CrossTenantAccess()
	}
	orgID, err := primitive.ObjectIDFromHex(actor.OrganizationID)
	if err != nil {
		return nil, nil, apperror.CrossTenantAccess()
	}
	creatorID, err := primitive.ObjectIDFromHex(actor.UserID)
	if err != nil {
		return nil, nil, apperror.TokenInvalid()
	}

	password := StudentPassword(req.StudentID)
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	now := time.Now().UTC()
	user := &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         RoleStudent,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	student := &Student{
		OrganizationID: orgID,
		StudentID:      req.StudentID,
		CreatedBy:      creatorID,
		Metadata:       metadata,
		CreatedAt:      now,
	}

	if err := s.repo.CreateStudent(ctx, user, student); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, apperror.EmailTaken()
		}
		return nil, nil, err
	}

	s.mailer.Enqueue(notification.StudentWelcomeEmail(user.Email, student.StudentID, password))
	s.logger.Info("student created",
		zap.String("organization_id", actor.OrganizationID),
		zap.String("user_id", user.ID.Hex()),
	)
	return user, student, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Role and tenant
// are re-resolved from the store, not taken from the stale token claims.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return TokenPair{}, apperror.RefreshTokenInvalid()
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	if user == nil || !user.IsActive {
		return TokenPair{}, apperror.RefreshTokenInvalid()
	}

	profile, err := s.repo.ProfileForUser(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	return s.tokens.IssuePair(user.ID.Hex(), user.Email, user.Role, profile.OrganizationID())
}

// Logout checks the refresh token as a sanity check only. There is no
// server-side state to clear; the caller discards the cookie.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if _, err := s.tokens.Verify(refreshToken, RefreshToken); err != nil {
		s.logger.Debug("logout with invalid refresh token", zap.Error(err))
	}
}

// SendOTP issues a verification code to the given email.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	return s.otp.Issue(ctx, normalizeEmail(email), PurposeVerification)
}

// VerifyOTP consumes a verification code and marks the account verified.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	return s.otp.Verify(ctx, normalizeEmail(email), code)
}

// ForgotPassword issues a reset-purpose OTP.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.otp.Issue(ctx, normalizeEmail(email), PurposeReset)
}

// ResetPassword re-checks the OTP inline instead of going through
// OTPService.Verify so a successful reset does not implicitly mark the
// account verified. The new hash is written and the OTP fields cleared in
// one update.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return apperror.Validation("newPassword is required")
	}

	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if !otpMatches(user, code) {
		return apperror.InvalidOTP()
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID.Hex(), hash); err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

// GetProfile is a pure read, projecting out the sensitive fields via the
// model's json tags.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*User, Profile, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, Profile{}, err
	}
	if user == nil {
		return nil, Profile{}, apperror.NotFound("User not found")
	}
	profile, err := s.repo.ProfileForUser(ctx, user)
	if err != nil {
		return nil, Profile{}, err
	}
	return user, profile, nil
}
