package source

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted resources are whatever `openssl enc -aes-256-cbc -salt` wrote:
// an 8-byte "Salted__" magic, 8 bytes of salt, then CBC ciphertext. Newer
// files derive key+IV with PBKDF2-SHA256 (the tool's -pbkdf2 flag); older
// ones use the legacy MD5 EVP_BytesToKey schedule.

const (
	opensslMagic    = "Salted__"
	pbkdf2Iter      = 10000
	derivedKeyBytes = 32 + aes.BlockSize
)

// DecryptOpenSSL decrypts an OpenSSL enc payload with a passphrase, trying
// the PBKDF2 derivation first and falling back to the legacy schedule. A
// padding check failure under both derivations means the key is wrong or the
// payload is corrupt.
func DecryptOpenSSL(data []byte, passphrase string) ([]byte, error) {
	if len(data) < 16 || string(data[:8]) != opensslMagic {
		return nil, fmt.Errorf("decrypt: missing OpenSSL salt header")
	}
	salt := data[8:16]
	payload := data[16:]
	if len(payload) == 0 || len(payload)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("decrypt: ciphertext not block aligned")
	}

	key, iv := deriveKeyPBKDF2([]byte(passphrase), salt)
	if plain, err := decryptCBC(payload, key, iv); err == nil {
		return plain, nil
	}

	key, iv = deriveKeyLegacy([]byte(passphrase), salt)
	plain, err := decryptCBC(payload, key, iv)
	if err != nil {
		return nil, fmt.Errorf("decrypt: PBKDF2 and legacy derivations both failed: %w", err)
	}
	return plain, nil
}

func deriveKeyPBKDF2(passphrase, salt []byte) (key, iv []byte) {
	derived := pbkdf2.Key(passphrase, salt, pbkdf2Iter, derivedKeyBytes, sha256.New)
	return derived[:32], derived[32:]
}

// deriveKeyLegacy is EVP_BytesToKey with MD5 and a single round, the
// derivation openssl enc used before -pbkdf2 existed.
func deriveKeyLegacy(passphrase, salt []byte) (key, iv []byte) {
	var derived, prev []byte
	for len(derived) < derivedKeyBytes {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:32], derived[32:derivedKeyBytes]
}

func decryptCBC(payload, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, payload)
	return stripPKCS7(plain)
}

// stripPKCS7 validates and removes block padding. A wrong key shows up here,
// so the padding error doubles as the wrong-key signal.
func stripPKCS7(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	n := int(plain[len(plain)-1])
	if n == 0 || n > aes.BlockSize || n > len(plain) {
		return nil, fmt.Errorf("bad padding")
	}
	for _, b := range plain[len(plain)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("bad padding")
		}
	}
	return plain[:len(plain)-n], nil
}
