package obs

import (
	"crypto/sha256"
	"encoding/base64"
)

// authString computes the Identify authentication answer:
// base64(sha256(base64(sha256(password + salt)) + challenge)).
func authString(password string, auth *authentication) string {
	secret := sha256.Sum256([]byte(password + auth.Salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	answer := sha256.Sum256([]byte(secretB64 + auth.Challenge))
	return base64.StdEncoding.EncodeToString(answer[:])
}
