package admins

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Password     Password  `json:"-"` // hash never leaves the server
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Password stores plain text (transiently) and the bcrypt hash.
type Password struct {
	text *string
	hash []byte
}

func (p *Password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *Password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// Hash exposes the stored hash for persistence.
func (p *Password) Hash() []byte {
	return p.hash
}

// SetHash restores a password from its persisted hash.
func (p *Password) SetHash(hash []byte) {
	p.hash = hash
}
