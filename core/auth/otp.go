package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const otpDigits = 6

var otpRange = big.NewInt(900000) // codes are 100000-999999

// generateOTP returns a random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()+100000), nil
}

// verifyOTP checks code against the one stored on usr at time now.
func verifyOTP(usr AdminUser, code string, now time.Time) error {
	if usr.OTPCode == "" || usr.OTPExpiry == nil {
		return ErrNoOTP
	}
	if now.After(*usr.OTPExpiry) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(usr.OTPCode), []byte(code)) == 0 {
		return ErrInvalidOTP
	}
	return nil
}
