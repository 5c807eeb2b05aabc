// Package secret keeps credentials such as the payment API key in
// password-encrypted files so they need not sit in plain config.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 480_000
	saltLen    = 16
	keyLen     = 32 // AES-256
	version    = 1
)

// ErrNoSource is returned by Resolve when neither a value nor a file is set.
var ErrNoSource = errors.New("secret: no value or file configured")

// sealed is the on-disk format.
type sealed struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Seal encrypts plaintext under password with PBKDF2-HMAC-SHA256 and
// AES-256-GCM and returns the JSON document to store.
func Seal(plaintext, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("secret: password must not be empty")
	}
	if plaintext == "" {
		return nil, errors.New("secret: nothing to seal")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("secret: salt: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secret: nonce: %w", err)
	}

	return json.MarshalIndent(sealed{
		Version:    version,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, []byte(plaintext), nil)),
	}, "", "  ")
}

// Open decrypts a document produced by Seal.
func Open(doc []byte, password string) (string, error) {
	if password == "" {
		return "", errors.New("secret: password must not be empty")
	}

	var s sealed
	if err := json.Unmarshal(doc, &s); err != nil {
		return "", fmt.Errorf("secret: parse: %w", err)
	}
	if s.Version != version {
		return "", fmt.Errorf("secret: unsupported version %d", s.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(s.Salt)
	if err != nil {
		return "", fmt.Errorf("secret: decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(s.Nonce)
	if err != nil {
		return "", fmt.Errorf("secret: decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(s.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("secret: decode ciphertext: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("secret: malformed nonce")
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("secret: decrypt (wrong password?): %w", err)
	}
	return string(plaintext), nil
}

// Source names where a secret comes from. Value wins over File.
type Source struct {
	Value    string
	File     string
	Password string
}

// Resolve returns the secret described by src.
func Resolve(src Source) (string, error) {
	if v := strings.TrimSpace(src.Value); v != "" {
		return v, nil
	}
	if src.File == "" {
		return "", ErrNoSource
	}
	doc, err := os.ReadFile(src.File)
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", src.File, err)
	}
	return Open(doc, src.Password)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret: gcm: %w", err)
	}
	return gcm, nil
}
