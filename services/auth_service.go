package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const nonceTTL = 120 * time.Second

// SignatureVerifier checks that the signature over the nonce was produced by
// the claimed identity. The cryptographic scheme lives outside this service.
type SignatureVerifier func(nonce, address, signature string) (bool, error)

var (
	ErrUnknownNonce     = errors.New("unknown nonce")
	ErrNonceExpired     = errors.New("nonce expired")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// AuthService implements the challenge/response login: hand out a one-time
// nonce, then trade a valid signature over it for a session JWT.
type AuthService struct {
	mu     sync.Mutex
	nonces map[string]time.Time

	verify SignatureVerifier
	secret []byte
}

func NewAuthService(verify SignatureVerifier, secret []byte) *AuthService {
	return &AuthService{
		nonces: make(map[string]time.Time),
		verify: verify,
		secret: secret,
	}
}

// IssueNonce returns a fresh one-time nonce and its lifetime in seconds.
func (s *AuthService) IssueNonce() (string, int) {
	nonce := uuid.NewString()
	s.mu.Lock()
	s.nonces[nonce] = time.Now().Add(nonceTTL)
	s.mu.Unlock()
	return nonce, int(nonceTTL / time.Second)
}

// VerifyAndIssueToken consumes the nonce (one-time use), verifies the
// signature through the collaborator, and returns a signed session token.
func (s *AuthService) VerifyAndIssueToken(nonce, address, signature string) (string, error) {
	s.mu.Lock()
	expiresAt, ok := s.nonces[nonce]
	delete(s.nonces, nonce)
	s.mu.Unlock()

	if !ok {
		return "", ErrUnknownNonce
	}
	if time.Now().After(expiresAt) {
		return "", ErrNonceExpired
	}

	verified, err := s.verify(nonce, address, signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !verified {
		return "", ErrInvalidSignature
	}

	claims := jwt.MapClaims{
		"sub":     address,
		"address": address,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
