// Package auth issues and verifies the bearer tokens of students and teachers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"zoo-quiz-service/internal/domain"
)

const issuer = "zoo-quiz-service"

// Role distinguishes student tokens from admin tokens.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is who a verified token speaks for.
type Identity struct {
	Role        Role
	StudentID   string
	ClassroomID string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type claims struct {
	jwt.RegisteredClaims
	Role        Role   `json:"role"`
	ClassroomID string `json:"cid,omitempty"`
}

// Issuer signs HS256 tokens with a shared secret.
type Issuer struct {
	secret     []byte
	studentTTL time.Duration
	adminTTL   time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, studentTTL, adminTTL time.Duration) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	return &Issuer{secret: []byte(secret), studentTTL: studentTTL, adminTTL: adminTTL, now: time.Now}, nil
}

// IssueStudent returns a token bound to a student and their classroom.
func (i *Issuer) IssueStudent(s domain.Student) (string, time.Time, error) {
	return i.sign(claims{Role: RoleStudent, ClassroomID: s.ClassroomID}, s.ID, i.studentTTL)
}

// IssueAdmin returns a short-lived teacher token.
func (i *Issuer) IssueAdmin() (string, time.Time, error) {
	return i.sign(claims{Role: RoleAdmin}, "admin", i.adminTTL)
}

func (i *Issuer) sign(c claims, subject string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns its identity, or domain.ErrUnauthorized.
func (i *Issuer) Parse(token string) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrUnauthorized
	}

	switch c.Role {
	case RoleAdmin:
		return Identity{Role: RoleAdmin}, nil
	case RoleStudent:
		if c.Subject == "" {
			return Identity{}, domain.ErrUnauthorized
		}
		return Identity{Role: RoleStudent, StudentID: c.Subject, ClassroomID: c.ClassroomID}, nil
	default:
		return Identity{}, domain.ErrUnauthorized
	}
}
