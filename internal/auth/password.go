package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

// Compare возвращает false и при несовпадении, и при битом хеше
func (h *Hasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompareDummy тратит столько же времени, сколько Compare, но всегда возвращает false.
// Вызывается, когда пользователя нет
func (h *Hasher) CompareDummy(password string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return false
}
