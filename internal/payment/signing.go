package payment

import (
	"crypto/hmac"
	"encoding/hex"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// canonicalString joins the parameters as key=value pairs with '&', keys
// sorted ascending. MoMo signs the raw values; VNPay signs percent-encoded
// values. The difference is part of each provider's contract and must not
// be normalized away.
func canonicalString(params map[string]string, encode bool) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		v := params[k]
		if encode {
			v = url.QueryEscape(v)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

func hmacHex(newHash func() hash.Hash, secret, data string) string {
	mac := hmac.New(newHash, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the HMAC over the canonical string built from
// every parameter except the signature field and compares it byte-for-byte
// against the received signature. No fallback comparison.
func verifySignature(params map[string]string, sigField, secret string, newHash func() hash.Hash, encode bool) bool {
	received := params[sigField]
	if received == "" {
		return false
	}
	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k != sigField {
			rest[k] = v
		}
	}
	expected := hmacHex(newHash, secret, canonicalString(rest, encode))
	return hmac.Equal([]byte(expected), []byte(received))
}
