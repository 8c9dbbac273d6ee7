package portal

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("portal: invalid session")

// SessionClaims identify a claimed invite. The invite token is carried so a
// regenerated invite invalidates existing sessions at the next lookup.
type SessionClaims struct {
	InviteToken string `json:"invite"`
	jwt.RegisteredClaims
}

type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *SessionIssuer) Issue(clientID, inviteToken string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)

	claims := SessionClaims{
		InviteToken: inviteToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

func (i *SessionIssuer) Parse(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.InviteToken == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
