package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// TokenPrefix identifies quotahub tokens
	TokenPrefix = "qh_"
	// TokenLength is the total length of random bytes (32 bytes = 256 bits)
	TokenLength = 32
)

// TokenGenerator generates and validates API tokens
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken creates a new API token
// Format: qh_<base64url(32 random bytes)>
func (tg *TokenGenerator) GenerateToken() (token string, tokenHash string, tokenPrefix string, err error) {
	// Generate random bytes
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// Encode to base64url (URL-safe, no padding)
	encodedToken := base64.RawURLEncoding.EncodeToString(randomBytes)

	// Construct full token
	fullToken := TokenPrefix + encodedToken

	// Calculate SHA256 hash for storage
	hash := sha256.Sum256([]byte(fullToken))
	hashStr := hex.EncodeToString(hash[:])

	// Extract prefix (first 8 chars after "qh_") for identification
	prefix := TokenPrefix
	if len(encodedToken) >= 8 {
		prefix = TokenPrefix + encodedToken[:8]
	}

	return fullToken, hashStr, prefix, nil
}

// HashToken computes the SHA256 hash of a token for lookup
func (tg *TokenGenerator) HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct format
func (tg *TokenGenerator) ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}

	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}

	// Decode to verify it's valid base64url
	_, err := base64.RawURLEncoding.DecodeString(encodedPart)
	if err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}

	return nil
}

// ExtractPrefix extracts the prefix from a token for display
func (tg *TokenGenerator) ExtractPrefix(token string) string {
	if !strings.HasPrefix(token, TokenPrefix) {
		return ""
	}

	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) >= 8 {
		return TokenPrefix + encodedPart[:8]
	}

	return token
}

// Resolver resolves a bearer token to an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// StaticResolver resolves tokens against a fixed table keyed by token
// hash. Tokens are provisioned out of band; the resolver never sees
// plaintext tokens at rest.
type StaticResolver struct {
	generator  *TokenGenerator
	identities map[string]Identity
}

// NewStaticResolver creates a resolver over the given hash table. Keys
// are hex SHA256 hashes of full tokens, as produced by HashToken.
func NewStaticResolver(identities map[string]Identity) *StaticResolver {
	return &StaticResolver{
		generator:  NewTokenGenerator(),
		identities: identities,
	}
}

// Resolve validates the token format, hashes it, and looks up the
// identity. The hash comparison is constant-time.
func (r *StaticResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if err := r.generator.ValidateTokenFormat(token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	tokenHash := r.generator.HashToken(token)
	for hash, identity := range r.identities {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(tokenHash)) == 1 {
			resolved := identity
			resolved.TokenPrefix = r.generator.ExtractPrefix(token)
			return &resolved, nil
		}
	}

	return nil, ErrInvalidToken
}
