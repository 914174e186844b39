package sender

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// apnsTokenTTL is how long Apple accepts a provider token. Apple rejects
// tokens older than an hour and tokens refreshed more often than every
// 20 minutes, so half an hour sits safely between the two.
const apnsTokenTTL = 1800 * time.Second

// ApnsTokenSource caches a signed provider token and regenerates it lazily
// once the window expires. Safe for concurrent use.
type ApnsTokenSource struct {
	key    *ecdsa.PrivateKey
	keyID  string
	teamID string

	mu       sync.Mutex
	token    string
	issuedAt time.Time

	now func() time.Time
}

// NewApnsTokenSource parses the PEM-encoded .p8 signing key and returns an
// empty cache; the first Token call signs the first token.
func NewApnsTokenSource(p8 []byte, keyID, teamID string) (*ApnsTokenSource, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(p8)
	if err != nil {
		return nil, fmt.Errorf("parse APNs signing key: %w", err)
	}
	return &ApnsTokenSource{
		key:    key,
		keyID:  keyID,
		teamID: teamID,
		now:    time.Now,
	}, nil
}

// Token returns the cached provider token, signing a fresh one when the
// cached value is older than the refresh window.
func (s *ApnsTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Sub(s.issuedAt) < apnsTokenTTL {
		return s.token, nil
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = s.keyID

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign APNs provider token: %w", err)
	}

	s.token = signed
	s.issuedAt = now
	return signed, nil
}

const firebaseMessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// GoogleTokenSource yields OAuth access tokens for the FCM v1 API. Caching
// and refresh are the oauth2 library's concern; this type only adapts it to
// a plain string.
type GoogleTokenSource struct {
	ts oauth2.TokenSource
}

func NewGoogleTokenSource(ctx context.Context, serviceAccountJSON []byte) (*GoogleTokenSource, error) {
	cfg, err := google.JWTConfigFromJSON(serviceAccountJSON, firebaseMessagingScope)
	if err != nil {
		return nil, fmt.Errorf("parse Google service account key: %w", err)
	}
	return &GoogleTokenSource{ts: cfg.TokenSource(ctx)}, nil
}

func (s *GoogleTokenSource) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return "", fmt.Errorf("fetch Google access token: %w", err)
	}
	return tok.AccessToken, nil
}
