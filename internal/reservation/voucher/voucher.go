package voucher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-reservations/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is what the front desk reads back from a scanned voucher.
type Payload struct {
	ReservationID string    `json:"reservation_id"`
	DestinationID string    `json:"destination_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Participants  int       `json:"participants"`
	FullName      string    `json:"full_name"`
}

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// Generate renders the encrypted voucher token as a 256px PNG QR code.
func (g *Generator) Generate(r *models.Reservation) ([]byte, error) {
	token, err := g.Token(r)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, 256)
}

// Token is the URL-safe string embedded in the QR code.
func (g *Generator) Token(r *models.Reservation) (string, error) {
	data, err := json.Marshal(Payload{
		ReservationID: r.ID,
		DestinationID: r.DestinationID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Participants:  r.Participants,
		FullName:      r.Contact.FullName,
	})
	if err != nil {
		return "", err
	}
	return encryptAES(data, g.secret)
}

// Decode reverses Token. It fails for tokens sealed with another secret.
func (g *Generator) Decode(token string) (*Payload, error) {
	data, err := decryptAES(token, g.secret)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid voucher payload: %w", err)
	}
	return &p, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func decryptAES(token string, key []byte) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid voucher encoding: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("voucher too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	data, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("voucher authentication failed: %w", err)
	}
	return data, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
