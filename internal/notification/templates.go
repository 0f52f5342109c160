package notification

import "fmt"

// VerificationEmail carries the OTP for account verification.
func VerificationEmail(to, code string) Email {
	return Email{
		To:      to,
		Subject: "Verify your account",
		HTML: fmt.Sprintf("<p>Your verification code is <strong>%s</strong>. "+
			"It expires in 5 minutes.</p>", code),
	}
}

// ResetPasswordEmail carries the OTP for a password reset.
func ResetPasswordEmail(to, code string) Email {
	return Email{
		To:      to,
		Subject: "Reset your password",
		HTML: fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>. "+
			"It expires in 5 minutes.</p>", code),
	}
}

// StaffWelcomeEmail delivers the temporary password for a new staff account.
func StaffWelcomeEmail(to, tempPassword string) Email {
	return Email{
		To:      to,
		Subject: "Your staff account",
		HTML: fmt.Sprintf("<p>A staff account was created for you. "+
			"Your temporary password is <strong>%s</strong>. "+
			"Please change it after your first login.</p>", tempPassword),
	}
}

// StudentWelcomeEmail delivers the initial credentials for a new student
// account.
func StudentWelcomeEmail(to, studentID, password string) Email {
	return Email{
		To:      to,
		Subject: "Your student account",
		HTML: fmt.Sprintf("<p>A student account was created for you.</p>"+
			"<p>Student ID: <strong>%s</strong><br>Password: <strong>%s</strong></p>",
			studentID, password),
	}
}
