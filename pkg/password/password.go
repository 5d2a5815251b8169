// Package password implements one-way password hashing with argon2id.
//
// Hashes are encoded in the PHC string format so verification needs nothing
// beyond the stored string. Cost parameters are fixed package constants;
// callers cannot weaken them.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Fixed argon2id cost parameters (64 MiB, 3 passes, 1 lane).
const (
	memoryKiB   = 64 * 1024
	timeCost    = 3
	parallelism = 1
	saltLen     = 16
	keyLen      = 32
)

var errMalformedHash = errors.New("malformed argon2id hash")

// Hash derives an argon2id hash of the password with a fresh random salt and
// returns it PHC-encoded.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryKiB, parallelism, keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memoryKiB, timeCost, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether the password matches the encoded hash. Any malformed
// or unsupported hash string is treated as a non-match; no detail about the
// stored hash is surfaced.
func Verify(password, encoded string) bool {
	salt, key, time, memory, lanes, err := decode(encoded)
	if err != nil {
		return false
	}

	derived := argon2.IDKey([]byte(password), salt, time, memory, lanes, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1
}

// decode parses a PHC argon2id string, honouring the parameters embedded in
// it so hashes written with older constants still verify.
func decode(encoded string) (salt, key []byte, time, memory uint32, lanes uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &lanes); err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	return salt, key, time, memory, lanes, nil
}
