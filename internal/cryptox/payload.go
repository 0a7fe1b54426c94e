package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/avollmer/weavebox/internal/common"
)

// Envelope is the decoded inner payload of a storage object: base64
// ciphertext, base64 IV and the hex HMAC declared by the writer. Opaque until
// decrypted.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"IV"`
	HMAC       string `json:"hmac"`
}

// DecryptPayload verifies the envelope's HMAC and decrypts its ciphertext
// with the given key pair, returning the unpadded plaintext.
//
// The HMAC is computed over the base64-encoded ciphertext bytes, not the
// decoded ciphertext; that is what the storage format signs. A mismatch
// returns common.ErrIntegrity and must abort processing of the record: it
// means either a wrong key was resolved for the collection or tampering.
// Broken PKCS#7 padding returns common.ErrPadding.
func DecryptPayload(env Envelope, kp KeyPair) ([]byte, error) {
	declared, err := hex.DecodeString(env.HMAC)
	if err != nil {
		return nil, fmt.Errorf("%w: declared hmac is not hex: %v", common.ErrIntegrity, err)
	}

	mac := hmac.New(sha256.New, kp.HMACKey)
	mac.Write([]byte(env.Ciphertext))
	if !hmac.Equal(mac.Sum(nil), declared) {
		return nil, common.ErrIntegrity
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("decoding iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a positive multiple of the block size", len(ciphertext))
	}

	block, err := aes.NewCipher(kp.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return stripPKCS7(plaintext)
}

// EncryptPayload is the inverse of DecryptPayload: it pads, encrypts under a
// fresh random IV and signs the base64 ciphertext. Used to produce envelopes
// for round-trip verification and fixtures.
func EncryptPayload(plaintext []byte, kp KeyPair) (Envelope, error) {
	block, err := aes.NewCipher(kp.EncryptionKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("building cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("generating iv: %w", err)
	}

	padded := padPKCS7(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	ciphertextB64 := base64.StdEncoding.EncodeToString(ciphertext)
	mac := hmac.New(sha256.New, kp.HMACKey)
	mac.Write([]byte(ciphertextB64))

	return Envelope{
		Ciphertext: ciphertextB64,
		IV:         base64.StdEncoding.EncodeToString(iv),
		HMAC:       hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

// stripPKCS7 removes PKCS#7 padding: the last byte gives the pad length.
func stripPKCS7(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > len(b) {
		return nil, fmt.Errorf("%w: pad length %d over %d bytes", common.ErrPadding, n, len(b))
	}
	return b[:len(b)-n], nil
}

func padPKCS7(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}
