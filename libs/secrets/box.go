package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Box encrypts small credential maps (provider OAuth tokens) for storage at
// rest. The payload is JSON, sealed with AES-256-GCM under a key derived from
// the master secret. Plaintext credentials are decrypted immediately before a
// provider call and never persisted.
type Box struct {
	key []byte
}

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

const (
	kdfIterations = 200_000
	saltSize      = 16
)

func NewBox(masterSecret string) (*Box, error) {
	if strings.TrimSpace(masterSecret) == "" {
		return nil, errors.New("master secret is required")
	}
	// A fixed application salt keeps derivation deterministic across restarts;
	// a per-value random nonce still makes every ciphertext unique.
	key := pbkdf2.Key([]byte(masterSecret), []byte("pawdesk.credential.box.v1"), kdfIterations, 32, sha256.New)
	return &Box{key: key}, nil
}

// Encrypt seals a credential map into an opaque base64 string.
func (b *Box) Encrypt(values map[string]string) (string, error) {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(b.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a string produced by Encrypt.
func (b *Box) Decrypt(encoded string) (map[string]string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, ErrMalformedCiphertext
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	var values map[string]string
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, ErrMalformedCiphertext
	}
	return values, nil
}
