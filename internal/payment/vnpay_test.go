package payment

import (
	"crypto/sha512"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ndmanh/techstore-backend/internal/config"
	"github.com/ndmanh/techstore-backend/internal/order"
)

func vnpayTestConfig() config.VNPayConfig {
	return config.VNPayConfig{
		TmnCode:    "TESTTMN",
		HashSecret: "test-hash-secret",
		Endpoint:   "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/v1/payments/vnpay/return",
	}
}

// signVNPayParams produces the vnp_SecureHash the provider would attach.
func signVNPayParams(secret string, params map[string]string) string {
	return hmacHex(sha512.New, secret, canonicalString(params, true))
}

func TestVNPayCreatePaymentLink_RoundTrip(t *testing.T) {
	g := NewVNPayGateway(vnpayTestConfig())
	g.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	ord := order.Order{OrderID: "ord-1", OrderNumber: "ORD-20250314-09265307", Total: 50030000}
	payURL, err := g.CreatePaymentLink(ord, "203.0.113.7")
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	u, err := url.Parse(payURL)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	if !strings.HasPrefix(payURL, vnpayTestConfig().Endpoint+"?") {
		t.Errorf("pay url not rooted at the gateway endpoint: %s", payURL)
	}

	q := u.Query()
	if got := q.Get("vnp_Amount"); got != "5003000000" {
		t.Errorf("vnp_Amount = %s, want total in minor units", got)
	}
	if got := q.Get("vnp_TmnCode"); got != "TESTTMN" {
		t.Errorf("vnp_TmnCode = %s", got)
	}
	if got := q.Get("vnp_CreateDate"); got != "20250314092653" {
		t.Errorf("vnp_CreateDate = %s", got)
	}
	if got := OrderIDFromTxnRef(q.Get("vnp_TxnRef")); got != "ord-1" {
		t.Errorf("order id from txnRef = %s", got)
	}

	// a link we generated must verify through the inbound path
	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	if !g.VerifyCallback(params) {
		t.Fatal("generated link fails signature verification")
	}
}

func TestVNPayVerifyCallback(t *testing.T) {
	cfg := vnpayTestConfig()
	g := NewVNPayGateway(cfg)

	params := map[string]string{
		"vnp_Amount":        "5003000000",
		"vnp_BankCode":      "NCB",
		"vnp_ResponseCode":  "00",
		"vnp_TmnCode":       "TESTTMN",
		"vnp_TransactionNo": "14880123",
		"vnp_TxnRef":        "ord-1_1741944413",
	}
	params["vnp_SecureHash"] = signVNPayParams(cfg.HashSecret, params)

	// vnp_SecureHashType may tag along and must not break verification
	params["vnp_SecureHashType"] = "HmacSHA512"
	if !g.VerifyCallback(params) {
		t.Fatal("valid callback rejected")
	}

	tampered := make(map[string]string, len(params))
	for k, v := range params {
		tampered[k] = v
	}
	tampered["vnp_Amount"] = "5003000001"
	if g.VerifyCallback(tampered) {
		t.Fatal("callback with altered amount accepted")
	}

	delete(params, "vnp_SecureHash")
	if g.VerifyCallback(params) {
		t.Fatal("callback without vnp_SecureHash accepted")
	}
}

func TestOrderIDFromTxnRef(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"abc-123_1741944413", "abc-123"},
		{"abc-123", "abc-123"},
		{"abc_123_456", "abc"},
	}
	for _, tc := range cases {
		if got := OrderIDFromTxnRef(tc.ref); got != tc.want {
			t.Errorf("OrderIDFromTxnRef(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}
