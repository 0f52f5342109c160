package auth

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/notification"
)

// OTPPurpose labels what an issued code is for; it only affects the email
// sent, not the stored fields.
type OTPPurpose string

const (
	PurposeVerification OTPPurpose = "verification"
	PurposeReset        OTPPurpose = "reset"
)

const otpLength = 6

// GenerateOTP returns a fixed-width numeric code, uniformly random over its
// range.
func GenerateOTP(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, n)
	for i := 0; i < n; i++ {
		code[i] = '0' + readDigit(buf[i])
	}
	return string(code), nil
}

// readDigit maps a random byte onto 0-9 without modulo bias: bytes in the
// truncated tail [250,255] are folded back over the full range.
func readDigit(b byte) byte {
	for b >= 250 {
		fresh := make([]byte, 1)
		if _, err := rand.Read(fresh); err != nil {
			return b % 10
		}
		b = fresh[0]
	}
	return b % 10
}

// OTPService issues and verifies one-time codes stored on the user record.
type OTPService struct {
	repo   Repository
	mailer notification.Mailer
	ttl    time.Duration
	logger *zap.Logger
}

func NewOTPService(repo Repository, mailer notification.Mailer, ttl time.Duration, logger *zap.Logger) *OTPService {
	return &OTPService{repo: repo, mailer: mailer, ttl: ttl, logger: logger}
}

// Issue generates a fresh code for the user, overwriting any previous one,
// and enqueues the purpose-appropriate email. A missing user is reported as
// NotFound; callers knowingly leak account existence here.
func (s *OTPService) Issue(ctx context.Context, email string, purpose OTPPurpose) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("User not found")
	}

	code, err := GenerateOTP(otpLength)
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(s.ttl)
	if err := s.repo.StoreOTP(ctx, user.ID.Hex(), code, expiresAt); err != nil {
		return err
	}

	switch purpose {
	case PurposeReset:
		s.mailer.Enqueue(notification.ResetPasswordEmail(user.Email, code))
	default:
		s.mailer.Enqueue(notification.VerificationEmail(user.Email, code))
	}

	s.logger.Info("otp issued",
		zap.String("user_id", user.ID.Hex()),
		zap.String("purpose", string(purpose)),
	)
	return nil
}

// Verify consumes a code: on success the stored code is cleared so it
// cannot be replayed, and the account is marked verified. Every failure
// mode collapses into the same InvalidOTP error.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !otpMatches(user, code) {
		return apperror.InvalidOTP()
	}
	return s.repo.ClearOTP(ctx, user.ID.Hex(), true)
}

// otpMatches checks a candidate code against a single consistent read of
// the user row.
func otpMatches(user *User, code string) bool {
	if user == nil || user.OTPCode == "" || user.OTPCode != code {
		return false
	}
	if user.OTPExpiresAt == nil || user.OTPExpiresAt.Before(time.Now().UTC()) {
		return false
	}
	return true
}
