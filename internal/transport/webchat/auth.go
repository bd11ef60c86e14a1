package webchat

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is who a chat connection speaks for. Admin authorization is
// a separate allow-list check; the token only proves the user id.
type Identity struct {
	UserID    int64
	Username  string
	FirstName string
}

var ErrNoIdentity = errors.New("webchat: no user identity supplied")

type identityClaims struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	jwt.RegisteredClaims
}

// IdentityFromToken validates an HMAC-signed JWT and extracts the user
// identity. The subject claim holds the numeric user id.
func IdentityFromToken(secret, tokenString string) (Identity, error) {
	claims := identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("webchat: invalid token: %w", err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("webchat: bad subject claim %q: %w", claims.Subject, err)
	}
	return Identity{
		UserID:    userID,
		Username:  claims.Username,
		FirstName: claims.FirstName,
	}, nil
}

// IssueToken mints an identity token, used by operator tooling and
// tests.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Username:  id.Username,
		FirstName: id.FirstName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
