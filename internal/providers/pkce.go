package providers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// RFC 7636 recommends 43-128 characters for the verifier.
const codeVerifierLength = 64

func GenerateCodeVerifier() (string, error) {
	bytes := make([]byte, codeVerifierLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// CodeChallengeS256 derives the S256 challenge sent in the authorize URL.
func CodeChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
