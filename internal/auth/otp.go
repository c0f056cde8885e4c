package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpMin = 100000
const otpSpan = 900000

// GenerateOTP выдаёт код из [100000, 999999]: первая цифра никогда не 0
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("генерация кода: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
