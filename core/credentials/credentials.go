package credentials

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrUnknownUser is returned when a username has no stored credential.
var ErrUnknownUser = errors.New("unknown user")

// Credential is a persisted, hashed login record.
type Credential struct {
	Username     string `gorm:"column:username;primaryKey;size:120"`
	PasswordHash string `gorm:"column:password_hash;size:120;not null"`
	Role         string `gorm:"column:role;size:32;not null;default:'sales'"`
}

// TableName overrides the table name.
func (Credential) TableName() string {
	return "credentials"
}

// Store looks up and verifies credentials against the database.
type Store interface {
	// Lookup returns the credential for a username, or ErrUnknownUser.
	Lookup(ctx context.Context, username string) (*Credential, error)
	// Verify compares a plaintext password against the stored hash.
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Repository is the GORM-backed credential store.
type Repository struct {
	db   *gorm.DB
	cost int
}

// NewRepository creates a credential repository. A zero cost falls back to
// bcrypt.DefaultCost.
func NewRepository(db *gorm.DB, cost int) *Repository {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Repository{db: db, cost: cost}
}

// Lookup returns the credential for a username, or ErrUnknownUser.
func (r *Repository) Lookup(ctx context.Context, username string) (*Credential, error) {
	var c Credential
	err := r.db.WithContext(ctx).First(&c, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Verify compares a plaintext password against the stored hash.
func (r *Repository) Verify(ctx context.Context, username, password string) (bool, error) {
	c, err := r.Lookup(ctx, username)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil, nil
}

// Upsert stores a credential, hashing the plaintext password.
func (r *Repository) Upsert(ctx context.Context, username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return err
	}
	c := Credential{Username: username, PasswordHash: string(hash), Role: role}
	return r.db.WithContext(ctx).Save(&c).Error
}
