package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/term"
)

// Secrets file configuration.
const (
	SecretsFileName = "secrets.json.enc"
	saltSize        = 16
	scryptN         = 32768 // 2^15
	scryptR         = 8
	scryptP         = 1
	keySize         = 32 // AES-256
)

// Secrets key for the marketplace golden-key token.
const SecretAuthToken = "auth_token"

// deriveKey stretches the password into an AES-256 key with scrypt.
func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// EncryptSecrets writes the secrets map to path, sealed with AES-GCM under a
// password-derived key. Layout: salt || nonce || ciphertext.
func EncryptSecrets(path, password string, secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	blob := append(append(salt, nonce...), sealed...)

	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// DecryptSecrets reads and opens the secrets file written by EncryptSecrets.
func DecryptSecrets(path, password string) (map[string]string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	if len(blob) < saltSize {
		return nil, fmt.Errorf("secrets file truncated")
	}

	salt := blob[:saltSize]
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(blob) < saltSize+gcm.NonceSize() {
		return nil, fmt.Errorf("secrets file truncated")
	}
	nonce := blob[saltSize : saltSize+gcm.NonceSize()]
	sealed := blob[saltSize+gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets (wrong password?): %w", err)
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return secrets, nil
}

// ResolveAuthToken fills in cfg.Market.AuthToken when the environment did not
// provide one. With a secrets file present and a terminal attached it prompts
// for the password and pulls the token out of the encrypted store.
func ResolveAuthToken(cfg *Config, secretsPath string) error {
	if cfg.Market.AuthToken != "" {
		return nil
	}

	if _, err := os.Stat(secretsPath); err != nil {
		return fmt.Errorf("auth token not set: export %s or provision %s", EnvAuthToken, secretsPath)
	}
	if !term.IsTerminal(syscall.Stdin) {
		return fmt.Errorf("secrets file %s requires an interactive terminal to unlock", secretsPath)
	}

	fmt.Fprint(os.Stderr, "Secrets password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets, err := DecryptSecrets(secretsPath, string(password))
	if err != nil {
		return err
	}
	token, ok := secrets[SecretAuthToken]
	if !ok || token == "" {
		return fmt.Errorf("secrets file %s has no %q entry", secretsPath, SecretAuthToken)
	}
	cfg.Market.AuthToken = token
	return nil
}
