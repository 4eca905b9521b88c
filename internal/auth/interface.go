package auth

import "atelier/internal/domain/models"

// JWTVerifier validates bearer tokens. The abstraction keeps the auth
// middleware agnostic to how verification happens, which also makes it
// trivial to fake in tests.
type JWTVerifier interface {
	// VerifyToken validates a JWT string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an
	// invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
