// Package auth signs and checks the decision tokens handed out with an
// assignment. A token names one assignment and the only user allowed to
// decide on it, and stops working when the interaction lifetime is over.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/todobot/internal/common"
)

type Claims struct {
	jwt.RegisteredClaims
	AssignmentID string `json:"aid"`
	Recipient    string `json:"rcp"`
}

// ErrTokenExpired wraps common.ErrAssignmentExpired so callers can treat an
// expired token like an expired proposal.
var ErrTokenExpired = fmt.Errorf("decision token expired: %w", common.ErrAssignmentExpired)

// GenerateToken signs a token for assignmentID. A zero ttl issues a token
// that never expires.
func GenerateToken(assignmentID, recipient string, secretKey []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       assignmentID,
			Subject:  recipient,
			IssuedAt: jwt.NewNumericDate(now),
		},
		AssignmentID: assignmentID,
		Recipient:    recipient,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// ParseToken verifies tokenString and returns its claims. For an expired
// but otherwise valid token the claims are returned together with
// ErrTokenExpired, so the caller can still mark the assignment expired.
func ParseToken(tokenString string, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.AssignmentID != "" {
			return claims, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.AssignmentID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
