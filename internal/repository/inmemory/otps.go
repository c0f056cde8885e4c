package inmemory

import (
	"context"
	"fmt"
	"taskManager/internal/models/otp"
	repo "taskManager/internal/repository"
	"time"
)

func (s *Storage) CreateOTP(ctx context.Context, o *otp.OTP) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.nextOTPID++
	o.ID = s.nextOTPID
	o.CreatedAt = s.now()
	o.Used = false

	s.otps = append(s.otps, copyOTP(o))
	return nil
}

// ConsumeOTP проверяет и гасит код под одной блокировкой записи
func (s *Storage) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*otp.OTP, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var newest *otp.OTP
	for _, o := range s.otps {
		if o.Email != email || o.Code != code || !o.Usable(now) {
			continue
		}
		if newest == nil || o.CreatedAt.After(newest.CreatedAt) ||
			(o.CreatedAt.Equal(newest.CreatedAt) && o.ID > newest.ID) {
			newest = o
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("погашение кода: %w", repo.ErrNotFound)
	}

	newest.Used = true
	return copyOTP(newest), nil
}

func (s *Storage) PurgeOTPs(ctx context.Context, before time.Time) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	kept := s.otps[:0]
	var purged int64
	for _, o := range s.otps {
		if o.ExpiresAt.Before(before) || (o.Used && o.CreatedAt.Before(before)) {
			purged++
			continue
		}
		kept = append(kept, o)
	}
	s.otps = kept
	return purged, nil
}
