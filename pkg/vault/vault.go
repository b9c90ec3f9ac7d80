// Package vault seals the GitHub access token so only its ciphertext is ever
// stored. The AES-GCM key is derived either from a user-chosen password or
// deterministically from the client's fingerprint attributes, so the same
// client can decrypt its token across sessions without storing a key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	appSalt    = "stockbook-credential-vault-v1"
	iterations = 100_000
	keyLen     = 32
)

// ErrCiphertext is returned when sealed data cannot be decoded or
// authenticated, typically because the key is wrong.
var ErrCiphertext = errors.New("invalid or unauthentic ciphertext")

// Fingerprint is the set of client attributes a deterministic key is derived
// from. The UI collects them; the combination is stable for one browser on
// one machine.
type Fingerprint struct {
	UserAgent  string `json:"userAgent"`
	Language   string `json:"language"`
	ScreenSize string `json:"screenSize"`
	Timezone   string `json:"timezone"`
}

// KeyFromPassword stretches a user password into an AES-256 key.
func KeyFromPassword(password string) []byte {
	return deriveKey(password)
}

// KeyFromFingerprint derives the same key for the same fingerprint every
// time.
func KeyFromFingerprint(fp Fingerprint) []byte {
	material := strings.Join([]string{fp.UserAgent, fp.Language, fp.ScreenSize, fp.Timezone}, "|")
	return deriveKey(material)
}

func deriveKey(material string) []byte {
	digest := sha256.Sum256([]byte(material))
	return pbkdf2.Key(digest[:], []byte(appSalt), iterations, keyLen, sha256.New)
}

// Seal encrypts the plaintext under the key and returns a Base64 string of
// nonce-plus-ciphertext.
func Seal(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func Open(key []byte, encoded string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(sealed) < gcm.NonceSize() {
		return "", ErrCiphertext
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
