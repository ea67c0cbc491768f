package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"strconv"
	"strings"
	"time"

	"github.com/ndmanh/techstore-backend/internal/config"
	"github.com/ndmanh/techstore-backend/internal/order"
)

// VNPayGateway signs requests with HMAC-SHA512 over a percent-encoded
// canonical string and delivers them as a browser redirect to a signed
// query URL. There is no server-to-server call on the outbound path.
type VNPayGateway struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewVNPayGateway(cfg config.VNPayConfig) *VNPayGateway {
	return &VNPayGateway{cfg: cfg, now: time.Now}
}

// CreatePaymentLink builds the signed redirect URL for the order's total.
// vnp_TxnRef is a composite of the order id and a timestamp nonce; inbound
// handlers split it on '_' to recover the order id.
func (g *VNPayGateway) CreatePaymentLink(ord order.Order, clientIP string) (string, error) {
	now := g.now()
	txnRef := ord.OrderID + "_" + strconv.FormatInt(now.Unix(), 10)

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(ord.Total*100, 10),
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_CurrCode":   "VND",
		"vnp_IpAddr":     clientIP,
		"vnp_Locale":     "vn",
		"vnp_OrderInfo":  "Thanh toan don hang " + ord.OrderNumber,
		"vnp_OrderType":  "other",
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_TxnRef":     txnRef,
	}

	query := canonicalString(params, true)
	signature := hmacHex(sha512.New, g.cfg.HashSecret, query)
	return g.cfg.Endpoint + "?" + query + "&vnp_SecureHash=" + signature, nil
}

// VerifyCallback checks the vnp_SecureHash over all received vnp_*
// parameters. vnp_SecureHashType, when present, is excluded from the
// canonical string along with the hash itself.
func (g *VNPayGateway) VerifyCallback(params map[string]string) bool {
	received := params["vnp_SecureHash"]
	if received == "" {
		return false
	}
	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		rest[k] = v
	}
	expected := hmacHex(sha512.New, g.cfg.HashSecret, canonicalString(rest, true))
	return hmac.Equal([]byte(expected), []byte(received))
}

// OrderIDFromTxnRef recovers the order id from the composite reference.
func OrderIDFromTxnRef(txnRef string) string {
	return strings.SplitN(txnRef, "_", 2)[0]
}
