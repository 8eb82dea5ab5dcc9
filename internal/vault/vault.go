package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Vault encrypts and decrypts the aggregation access token before it touches
// the database.
type Vault struct {
	key []byte
	log *logrus.Logger
}

// New builds a vault from the operator-supplied hex key. When the key is
// missing or malformed a random process-lifetime key is generated and a
// warning is logged: tokens encrypted before a restart are then
// unrecoverable, which is the accepted cost of the fallback.
func New(hexKey string, log *logrus.Logger) *Vault {
	if hexKey != "" {
		key, err := hex.DecodeString(hexKey)
		if err == nil && validKeySize(len(key)) {
			return &Vault{key: key, log: log}
		}
		log.Warn("Provided ENCRYPTION_KEY invalid; generating ephemeral key")
	} else {
		log.Warn("Using ephemeral encryption key; set ENCRYPTION_KEY for persistence")
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failure means the process cannot do anything secret
		panic(fmt.Sprintf("vault: cannot generate ephemeral key: %v", err))
	}
	return &Vault{key: key, log: log}
}

func validKeySize(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// Encrypt encrypts a secret with AES-CBC and PKCS#7 padding, returning a
// hex-encoded IV-prefixed ciphertext. An empty secret yields an empty string.
func (v *Vault) Encrypt(secret string) (string, error) {
	if secret == "" {
		return "", nil
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	// PKCS#7 padding
	data := []byte(secret)
	padding := aes.BlockSize - len(data)%aes.BlockSize
	for i := 0; i < padding; i++ {
		data = append(data, byte(padding))
	}

	ciphertext := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, data)

	return hex.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt reverses Encrypt. An empty ciphertext yields an empty string.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(data) < aes.BlockSize {
		return "", fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}

	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length: %d bytes", len(ciphertext))
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padding := int(plaintext[len(plaintext)-1])
	if padding > aes.BlockSize || padding == 0 {
		return "", fmt.Errorf("invalid padding value: %d", padding)
	}
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if int(plaintext[i]) != padding {
			return "", fmt.Errorf("invalid padding bytes at position %d", i)
		}
	}

	return string(plaintext[:len(plaintext)-padding]), nil
}
