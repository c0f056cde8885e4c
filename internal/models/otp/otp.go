package otp

import "time"

const TTL = 10 * time.Minute
const CodeLength = 6

// OTP связан с пользователем по email, а не по id
type OTP struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"-" db:"otp"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"is_used" db:"is_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Usable - неиспользованный и не истёкший
func (o *OTP) Usable(now time.Time) bool {
	return !o.Used && !o.Expired(now)
}
