package auth

import (
	"crypto/rand"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is fixed at 12 (~2^12 iterations).
const bcryptCost = 12

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

// CheckPassword relies on bcrypt's constant-time comparison.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const tempPasswordLength = 8

// TempPassword generates the random temporary password issued to new staff
// accounts.
func TempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = tempPasswordAlphabet[int(buf[i])%len(tempPasswordAlphabet)]
	}
	return string(buf), nil
}

// StudentPassword derives the initial student password from the external
// student id. The derivation is predictable on purpose: students receive
// "<studentId>@123" and are expected to change it. A known weakness carried
// over from the original credential policy.
func StudentPassword(studentID string) string {
	return studentID + "@123"
}
