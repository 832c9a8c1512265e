package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidTicket = errors.New("sec: invalid download ticket")

// TicketClaims authorize one download: the subject may fetch the artifact named by the ID.
type TicketClaims struct {
	jwt.RegisteredClaims
	FileName string `json:"fn"`
}

// TicketIssuer signs short-lived HS256 download tickets.
type TicketIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (ti *TicketIssuer) now() time.Time {
	if ti.Now != nil {
		return ti.Now()
	}
	return time.Now()
}

func (ti *TicketIssuer) Issue(subject, artifactID, fileName string) (string, error) {
	if len(ti.Secret) == 0 {
		return "", errors.New("sec: ticket secret not set")
	}
	now := ti.now()
	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        artifactID,
			Subject:   subject,
			Issuer:    ti.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.TTL)),
		},
		FileName: fileName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.Secret)
}

// Parse verifies signature, issuer and expiry. Any failure wraps ErrInvalidTicket.
func (ti *TicketIssuer) Parse(signed string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	_, err := jwt.ParseWithClaims(signed, claims,
		func(token *jwt.Token) (any, error) {
			return ti.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: no artifact id", ErrInvalidTicket)
	}
	return claims, nil
}
