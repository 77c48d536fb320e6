package qr_test

import (
	"testing"
	"time"

	"ms-marketplace/internal/order/qr"
)

func sampleClaims() qr.PickupClaims {
	return qr.PickupClaims{
		OrderID:     "order-1",
		OrderNumber: "ORD-20260831-0001",
		BuyerID:     "buyer-1",
		IssuedAt:    time.Now().UTC().Round(time.Second),
	}
}

func TestGeneratePickupQR(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")

	png, err := gen.GeneratePickupQR(sampleClaims())
	if err != nil {
		t.Fatalf("Failed to generate QR code: %v", err)
	}
	if len(png) == 0 {
		t.Error("Generated QR code is empty")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")
	claims := sampleClaims()

	sealed, err := gen.EncodePickup(claims)
	if err != nil {
		t.Fatalf("Failed to seal claims: %v", err)
	}

	decoded, err := gen.DecodePickup(sealed)
	if err != nil {
		t.Fatalf("Failed to decode pickup code: %v", err)
	}
	if decoded.OrderID != claims.OrderID {
		t.Errorf("Expected order ID %s, got %s", claims.OrderID, decoded.OrderID)
	}
	if decoded.OrderNumber != claims.OrderNumber {
		t.Errorf("Expected order number %s, got %s", claims.OrderNumber, decoded.OrderNumber)
	}
	if decoded.BuyerID != claims.BuyerID {
		t.Errorf("Expected buyer ID %s, got %s", claims.BuyerID, decoded.BuyerID)
	}
	if !decoded.IssuedAt.Equal(claims.IssuedAt) {
		t.Errorf("Expected issued at %v, got %v", claims.IssuedAt, decoded.IssuedAt)
	}
}

func TestDecodeWithWrongSecret(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")
	other := qr.NewGenerator("a-different-secret")

	sealed, err := gen.EncodePickup(sampleClaims())
	if err != nil {
		t.Fatalf("Failed to seal claims: %v", err)
	}

	if _, err := other.DecodePickup(sealed); err == nil {
		t.Error("Expected decode to fail under a different secret")
	}
}

func TestDecodeMalformedInput(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")

	if _, err := gen.DecodePickup("not-base64!!!"); err == nil {
		t.Error("Expected error for non-base64 input")
	}
	if _, err := gen.DecodePickup("c2hvcnQ="); err == nil {
		t.Error("Expected error for truncated ciphertext")
	}
}

func TestSealedOutputVaries(t *testing.T) {
	gen := qr.NewGenerator("test-secret-key")
	claims := sampleClaims()

	first, err := gen.EncodePickup(claims)
	if err != nil {
		t.Fatalf("Failed to seal claims: %v", err)
	}
	second, err := gen.EncodePickup(claims)
	if err != nil {
		t.Fatalf("Failed to seal claims: %v", err)
	}

	// Fresh nonce per seal: identical claims never produce identical codes.
	if first == second {
		t.Error("Expected differing sealed output for repeated claims")
	}
}
