package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/basecamp"
	"gorm.io/gorm"
)

// DefaultSessionTTL applies when a Service is not configured with its own.
const DefaultSessionTTL = 30 * 24 * time.Hour

// A SessionStore persists the link between an opaque session token and a user.
type SessionStore interface {
	// Create opens a session for userID, returning the token identifying it.
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)

	// Lookup resolves a token to the userID it was created for.
	// An unknown or expired token returns ErrNoSession.
	Lookup(ctx context.Context, token string) (string, error)

	// Destroy closes the session identified by token.
	Destroy(ctx context.Context, token string) error
}

// A UserSession is one database-backed session record.
type UserSession struct {
	Token     string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// dbSessions implements SessionStore on UserSession records.
type dbSessions struct {
	db *gorm.DB
}

func newDBSessions(db *gorm.DB) (*dbSessions, error) {
	if err := db.AutoMigrate(&UserSession{}); err != nil {
		return nil, fmt.Errorf("%w: migrating sessions: %s", basecamp.ErrBadConfig, err)
	}

	return &dbSessions{db: db}, nil
}

func (s *dbSessions) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	us := UserSession{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&us).Error; err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return us.Token, nil
}

func (s *dbSessions) Lookup(ctx context.Context, token string) (string, error) {
	var us UserSession
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&us).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoSession
	}

	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return us.UserID, nil
}

func (s *dbSessions) Destroy(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Delete(&UserSession{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return nil
}

// purgeExpired deletes session records past their expiry,
// returning how many went.
func (s *dbSessions) purgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&UserSession{}, "expires_at <= ?", time.Now())
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnexpected, res.Error)
	}

	return res.RowsAffected, nil
}
