// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth hashes and checks account passwords with argon2id and
// validates registration credentials.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters (OWASP recommended second choice: m=19456, t=2, p=1)
const (
	Argon2Time    = 2
	Argon2Memory  = 19 * 1024
	Argon2Threads = 1
	Argon2KeyLen  = 32
	Argon2SaltLen = 16
)

// ErrInvalidHash is returned for stored hashes that cannot be parsed.
var ErrInvalidHash = errors.New("auth: invalid password hash")

// argonHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type argonHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeHash(encoded string) (argonHash, error) {
	var h argonHash

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return h, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return h, ErrInvalidHash
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}
	return h, nil
}

// HashPassword returns an encoded argon2id hash of password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// CheckPassword reports whether password matches the encoded hash.
// The comparison is constant time.
func CheckPassword(password, encodedHash string) (bool, error) {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsRehash reports whether a stored hash was made with parameters other
// than the current ones.
func NeedsRehash(encodedHash string) bool {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	return h.memory != Argon2Memory || h.time != Argon2Time || h.threads != Argon2Threads
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// CheckDummy spends the same work as CheckPassword so that a login for an
// unknown username takes as long as one with a wrong password.
func CheckDummy(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("blogicum-dummy-password")
	})
	_, _ = CheckPassword(password, dummyHash)
}
