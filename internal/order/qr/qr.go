package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
)

// PickupClaims is what the seller scans at handover: enough to match the
// order without exposing anything else.
type PickupClaims struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     string    `json:"buyer_id"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Generator produces encrypted pickup QR codes for orders that reached the
// ready status.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GeneratePickupQR returns a PNG QR image carrying the encrypted claims.
func (g *Generator) GeneratePickupQR(claims PickupClaims) ([]byte, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}

	sealed, err := g.seal(data)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(sealed, qrcode.Medium, 256)
}

// EncodePickup returns the sealed claims string as embedded in the QR
// image, for clients that render the code themselves.
func (g *Generator) EncodePickup(claims PickupClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return g.seal(data)
}

// DecodePickup reverses seal; used by the seller-side scan endpoint.
func (g *Generator) DecodePickup(sealed string) (*PickupClaims, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("malformed pickup code: %w", err)
	}

	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("malformed pickup code: too short")
	}

	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("pickup code verification failed: %w", err)
	}

	var claims PickupClaims
	if err := json.Unmarshal(plain, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (g *Generator) seal(data []byte) (string, error) {
	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
