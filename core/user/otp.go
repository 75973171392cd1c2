package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

var otpMax = big.NewInt(1000000)

// GenerateOTP returns a uniformly random 6-digit numeric code, zero-padded.
// The source is crypto/rand; OTPs guard the first password set and must not
// be guessable.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

// GenerateTempPassword returns a random temporary password for
// tutor-initiated resets.
func GenerateTempPassword() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
