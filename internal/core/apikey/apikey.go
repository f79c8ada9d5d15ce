// Package apikey contains the pure rules for workspace API keys: secret
// format, hashing and the self-protection guards.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/example/kanban/internal/core/access"
)

const (
	// SecretPrefix marks every API key secret.
	SecretPrefix = "sk_"
	// SecretBodyLength is the number of base62 characters after the prefix.
	SecretBodyLength = 32

	base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Guard messages.
const (
	NameRequiredMessage = "API key name is required"
	InvalidRoleMessage  = "role must be one of admin, agent"
	SelfDeleteMessage   = "An API key cannot delete itself"
	SelfDemoteMessage   = "An API key cannot demote itself"
)

// GenerateSecret returns a new plaintext secret read from crypto/rand.
func GenerateSecret() (string, error) {
	return GenerateSecretFrom(rand.Reader)
}

// GenerateSecretFrom returns a new plaintext secret drawing entropy from r.
func GenerateSecretFrom(r io.Reader) (string, error) {
	alphabetSize := big.NewInt(int64(len(base62Alphabet)))
	var b strings.Builder
	b.Grow(len(SecretPrefix) + SecretBodyLength)
	b.WriteString(SecretPrefix)
	for i := 0; i < SecretBodyLength; i++ {
		n, err := rand.Int(r, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate api key secret: %w", err)
		}
		b.WriteByte(base62Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// HashSecret returns the lowercase hex SHA-256 digest stored in place of the secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// HasValidFormat reports whether secret looks like a key this system issued.
func HasValidFormat(secret string) bool {
	body, ok := strings.CutPrefix(secret, SecretPrefix)
	if !ok || len(body) != SecretBodyLength {
		return false
	}
	for i := 0; i < len(body); i++ {
		if strings.IndexByte(base62Alphabet, body[i]) < 0 {
			return false
		}
	}
	return true
}

// CreateKeyContext provides context for key creation guards.
type CreateKeyContext struct {
	Name string
	Role string
}

// CanCreateKey evaluates whether a key can be created.
// Rules:
// - Name must be non-empty after trimming
// - Role must be admin or agent
func CanCreateKey(ctx CreateKeyContext) GuardResult {
	if strings.TrimSpace(ctx.Name) == "" {
		return GuardResult{Allowed: false, Reason: NameRequiredMessage}
	}
	if !access.ValidKeyRole(ctx.Role) {
		return GuardResult{Allowed: false, Reason: InvalidRoleMessage}
	}
	return GuardResult{Allowed: true}
}

// DeleteKeyContext provides context for key deletion guards.
type DeleteKeyContext struct {
	KeyID       string
	CallerKeyID string // empty for session callers
}

// CanDeleteKey evaluates whether a key can be deleted.
// Rules:
// - A key cannot delete itself
func CanDeleteKey(ctx DeleteKeyContext) GuardResult {
	if ctx.CallerKeyID != "" && ctx.CallerKeyID == ctx.KeyID {
		return GuardResult{Allowed: false, Reason: SelfDeleteMessage}
	}
	return GuardResult{Allowed: true}
}

// ChangeRoleContext provides context for role change guards.
type ChangeRoleContext struct {
	KeyID       string
	CurrentRole string
	NewRole     string
	CallerKeyID string
}

// CanChangeRole evaluates whether a key's role can change.
// Rules:
// - New role must be admin or agent
// - A key cannot move itself to a lower privilege tier
func CanChangeRole(ctx ChangeRoleContext) GuardResult {
	if !access.ValidKeyRole(ctx.NewRole) {
		return GuardResult{Allowed: false, Reason: InvalidRoleMessage}
	}
	self := ctx.CallerKeyID != "" && ctx.CallerKeyID == ctx.KeyID
	if self && tier(ctx.NewRole) < tier(ctx.CurrentRole) {
		return GuardResult{Allowed: false, Reason: SelfDemoteMessage}
	}
	return GuardResult{Allowed: true}
}

func tier(role string) int {
	if role == "admin" {
		return 1
	}
	return 0
}
