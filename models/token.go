package models

import (
	"crypto/sha256"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
	"golang.org/x/crypto/hkdf"
)

// Client token constants
const (
	// ClientTokenLifetime keeps a browser's history namespace for a year
	ClientTokenLifetime = 365 * 24 * time.Hour

	// TokenIssuer identifies the application that issued the token
	TokenIssuer = "houseplants"

	// clientKeyInfo separates the derived signing key from any other use
	// of the configured secret
	clientKeyInfo = "houseplants client token v1"
)

// ClientClaims identify one browser. The ClientID doubles as the storage
// namespace holding that browser's search history.
type ClientClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
}

// ClientTokens issues and verifies client tokens with a key derived from
// the configured secret.
type ClientTokens struct {
	key []byte
	now func() time.Time
}

// NewClientTokens derives an HS256 signing key from secret via HKDF-SHA256.
func NewClientTokens(secret string) (*ClientTokens, error) {
	if len(secret) < MinSecretLength {
		return nil, serr.New("client secret must be at least 32 characters")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(clientKeyInfo)), key); err != nil {
		return nil, serr.Wrap(err, "failed to derive client signing key")
	}
	return &ClientTokens{key: key, now: time.Now}, nil
}

// Issue creates a token for a brand-new client and returns it with the id.
func (t *ClientTokens) Issue() (token string, clientID string, err error) {
	clientID = uuid.NewString()
	now := t.now()

	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ClientTokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		ClientID: clientID,
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", "", serr.Wrap(err, "failed to sign client token")
	}
	return token, clientID, nil
}

// Validate returns the client id carried by a valid token.
func (t *ClientTokens) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, serr.New("unexpected signing method")
		}
		return t.key, nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", serr.Wrap(err, "failed to parse client token")
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return "", serr.New("invalid client token claims")
	}
	return claims.ClientID, nil
}
