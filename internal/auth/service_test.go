package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakeRepository, *fakeMailer) {
	t.Helper()
	repo := newFakeRepository()
	mailer := &fakeMailer{}
	tokens := testTokenService(15*time.Minute, 7*24*time.Hour)
	otp := NewOTPService(repo, mailer, 5*time.Minute, zap.NewNop())
	return NewAuthService(repo, tokens, otp, mailer, zap.NewNop()), repo, mailer
}

func registerAcme(t *testing.T, svc *AuthService) (*User, *Organization, TokenPair) {
	t.Helper()
	user, org, pair, err := svc.RegisterOrganization(context.Background(), RegisterOrgRequest{
		Email:            "Admin@Acme.test",
		Password:         "hunter22",
		FirstName:        "Ada",
		LastName:         "Admin",
		OrganizationName: "Acme University",
	})
	require.NoError(t, err)
	return user, org, pair
}

func TestRegisterOrganizationAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	user, org, pair, err := svc.RegisterOrganization(context.Background(), RegisterOrgRequest{
		Email:            "Admin@Acme.test",
		Password:         "hunter22",
		FirstName:        "Ada",
		OrganizationName: "Acme University",
	})
	require.NoError(t, err)
	require.Equal(t, "admin@acme.test", user.Email, "email is normalized")
	require.Equal(t, RoleOrgAdmin, user.Role)
	require.True(t, user.IsActive)
	require.Equal(t, user.ID, org.AdminUserID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	loggedIn, profile, loginPair, err := svc.Login(context.Background(), "ADMIN@acme.test", "hunter22")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotNil(t, loggedIn.LastLogin)
	require.Equal(t, org.ID.Hex(), profile.OrganizationID())
	require.NotEmpty(t, loginPair.AccessToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registerAcme(t, svc)

	_, _, _, err := svc.RegisterOrganization(context.Background(), RegisterOrgRequest{
		Email:            "admin@acme.test",
		Password:         "other",
		FirstName:        "Bob",
		OrganizationName: "Other Org",
	})
	require.True(t, apperror.Is(err, apperror.CodeEmailTaken))
}

// Unknown email, wrong password and a deactivated account must be
// indistinguishable from the outside.
func TestLoginFailuresAreUniform(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, _, _ := registerAcme(t, svc)

	_, _, _, unknownErr := svc.Login(context.Background(), "nobody@acme.test", "hunter22")
	_, _, _, wrongErr := svc.Login(context.Background(), "admin@acme.test", "wrong")

	repo.users[user.ID.Hex()].IsActive = false
	_, _, _, inactiveErr := svc.Login(context.Background(), "admin@acme.test", "hunter22")

	for _, err := range []error{unknownErr, wrongErr, inactiveErr} {
		require.True(t, apperror.Is(err, apperror.CodeInvalidCredentials))
		appErr, _ := apperror.As(err)
		require.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestCreateStaff(t *testing.T) {
	svc, repo, mailer := newTestAuthService(t)
	_, org, _ := registerAcme(t, svc)

	actor := &Claims{UserID: primitive.NewObjectID().Hex(), Role: RoleOrgAdmin, OrganizationID: org.ID.Hex()}
	user, staff, err := svc.CreateStaff(context.Background(), actor, CreateStaffRequest{
		Email:      "teacher@acme.test",
		FirstName:  "Tina",
		Department: "Physics",
	})
	require.NoError(t, err)
	require.Equal(t, RoleStaff, user.Role)
	require.Equal(t, org.ID, staff.OrganizationID)
	require.NotNil(t, staff.Permissions)

	// The welcome email carries the temporary password, which must log in.
	require.NotEmpty(t, mailer.sent)
	welcome := mailer.sent[len(mailer.sent)-1]
	require.Equal(t, "teacher@acme.test", welcome.To)

	// The mailed temporary password must match the stored hash.
	start := strings.Index(welcome.HTML, "<strong>") + len("<strong>")
	end := strings.Index(welcome.HTML, "</strong>")
	require.Greater(t, end, start)
	tempPassword := welcome.HTML[start:end]
	require.Len(t, tempPassword, 8)
	require.True(t, CheckPassword(tempPassword, repo.users[user.ID.Hex()].PasswordHash))
}

func TestCreateStaffCrossTenant(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	_, org, _ := registerAcme(t, svc)

	actor := &Claims{UserID: primitive.NewObjectID().Hex(), Role: RoleOrgAdmin, OrganizationID: org.ID.Hex()}
	_, _, err := svc.CreateStaff(context.Background(), actor, CreateStaffRequest{
		Email:          "teacher@acme.test",
		FirstName:      "Tina",
		OrganizationID: primitive.NewObjectID().Hex(),
	})
	require.True(t, apperror.Is(err, apperror.CodeCrossTenantAccess))
}

func TestCreateStudentDerivedPassword(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	_, org, _ := registerAcme(t, svc)

	actor := &Claims{UserID: primitive.NewObjectID().Hex(), Role: RoleStaff, OrganizationID: org.ID.Hex()}
	user, student, err := svc.CreateStudent(context.Background(), actor, CreateStudentRequest{
		Email:     "s100@acme.test",
		FirstName: "Sam",
		StudentID: "S100",
	})
	require.NoError(t, err)
	require.Equal(t, RoleStudent, user.Role)
	require.Equal(t, "S100", student.StudentID)
	require.Equal(t, org.ID, student.OrganizationID)
	require.NotEmpty(t, mailer.sent)

	_, profile, _, err := svc.Login(context.Background(), "s100@acme.test", "S100@123")
	require.NoError(t, err)
	require.Equal(t, org.ID.Hex(), profile.OrganizationID())
}

// Refresh must re-resolve role and tenant from the store so a role change
// takes effect on the next refresh, not only after the old claims expire.
func TestRefreshReResolvesFromStore(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, org, pair := registerAcme(t, svc)

	repo.users[user.ID.Hex()].Role = RoleStaff
	repo.staff = append(repo.staff, &Staff{
		ID:             primitive.NewObjectID(),
		UserID:         user.ID,
		OrganizationID: org.ID,
	})

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.tokens.Verify(fresh.AccessToken, AccessToken)
	require.NoError(t, err)
	require.Equal(t, RoleStaff, claims.Role)
	require.Equal(t, org.ID.Hex(), claims.OrganizationID)
}

func TestRefreshRejections(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, _, pair := registerAcme(t, svc)

	_, err := svc.Refresh(context.Background(), "garbage")
	require.True(t, apperror.Is(err, apperror.CodeTokenInvalid))

	// An access token is signed with the wrong secret for the refresh flow.
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.True(t, apperror.Is(err, apperror.CodeTokenInvalid))

	repo.users[user.ID.Hex()].IsActive = false
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, apperror.Is(err, apperror.CodeTokenInvalid))
	appErr, _ := apperror.As(err)
	require.Equal(t, 403, appErr.Status)
}

func TestResetPasswordKeepsVerificationPending(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, _, _ := registerAcme(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "admin@acme.test"))
	code := repo.users[user.ID.Hex()].OTPCode
	require.NotEmpty(t, code)

	require.NoError(t, svc.ResetPassword(context.Background(), "admin@acme.test", code, "newpass99"))

	stored := repo.users[user.ID.Hex()]
	require.False(t, stored.IsVerified, "reset must not mark the account verified")
	require.Empty(t, stored.OTPCode)

	_, _, _, err := svc.Login(context.Background(), "admin@acme.test", "hunter22")
	require.True(t, apperror.Is(err, apperror.CodeInvalidCredentials))
	_, _, _, err = svc.Login(context.Background(), "admin@acme.test", "newpass99")
	require.NoError(t, err)

	// The consumed code cannot be used a second time.
	err = svc.ResetPassword(context.Background(), "admin@acme.test", code, "another")
	require.True(t, apperror.Is(err, apperror.CodeInvalidOTP))
}

func TestVerifyOTPMarksVerified(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, _, _ := registerAcme(t, svc)

	require.NoError(t, svc.SendOTP(context.Background(), "admin@acme.test"))
	code := repo.users[user.ID.Hex()].OTPCode

	require.NoError(t, svc.VerifyOTP(context.Background(), "admin@acme.test", code))
	require.True(t, repo.users[user.ID.Hex()].IsVerified)
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	user, org, _ := registerAcme(t, svc)

	got, profile, err := svc.GetProfile(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)
	require.NotNil(t, profile.Organization)
	require.Equal(t, org.ID, profile.Organization.ID)

	_, _, err = svc.GetProfile(context.Background(), primitive.NewObjectID().Hex())
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}
