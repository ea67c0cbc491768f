package payment

import (
	"crypto/sha256"
	"testing"
)

func TestCanonicalString_SortsKeys(t *testing.T) {
	params := map[string]string{
		"b": "2",
		"a": "1",
		"c": "3",
	}
	if got := canonicalString(params, false); got != "a=1&b=2&c=3" {
		t.Fatalf("canonical string = %q", got)
	}
}

func TestCanonicalString_Encoding(t *testing.T) {
	params := map[string]string{
		"vnp_OrderInfo": "Thanh toan don hang ORD-1",
		"vnp_ReturnUrl": "http://localhost/return",
	}

	raw := canonicalString(params, false)
	if raw != "vnp_OrderInfo=Thanh toan don hang ORD-1&vnp_ReturnUrl=http://localhost/return" {
		t.Errorf("unencoded form mangled: %q", raw)
	}

	encoded := canonicalString(params, true)
	if encoded != "vnp_OrderInfo=Thanh+toan+don+hang+ORD-1&vnp_ReturnUrl=http%3A%2F%2Flocalhost%2Freturn" {
		t.Errorf("encoded form mangled: %q", encoded)
	}
}

func TestVerifySignature_RoundTripAndTamper(t *testing.T) {
	secret := "test-secret"
	params := map[string]string{
		"orderId":    "abc",
		"amount":     "50030000",
		"resultCode": "0",
	}
	params["signature"] = hmacHex(sha256.New, secret, canonicalString(map[string]string{
		"orderId":    "abc",
		"amount":     "50030000",
		"resultCode": "0",
	}, false))

	if !verifySignature(params, "signature", secret, sha256.New, false) {
		t.Fatal("valid signature rejected")
	}

	// flip one character of the signature
	sig := []byte(params["signature"])
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	params["signature"] = string(sig)
	if verifySignature(params, "signature", secret, sha256.New, false) {
		t.Fatal("tampered signature accepted")
	}

	// missing signature
	delete(params, "signature")
	if verifySignature(params, "signature", secret, sha256.New, false) {
		t.Fatal("absent signature accepted")
	}
}
