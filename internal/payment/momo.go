package payment

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ndmanh/techstore-backend/internal/config"
	"github.com/ndmanh/techstore-backend/internal/order"
)

const momoRequestType = "captureWallet"

// momoClientTimeout bounds the create-link call; a timeout surfaces as a
// GatewayError, never as silent success.
const momoClientTimeout = 8 * time.Second

// MoMoGateway signs requests with HMAC-SHA256 over an unencoded canonical
// string and delivers them as a JSON POST.
type MoMoGateway struct {
	cfg    config.MoMoConfig
	client *http.Client
}

func NewMoMoGateway(cfg config.MoMoConfig) *MoMoGateway {
	return &MoMoGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: momoClientTimeout},
	}
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// CreatePaymentLink requests a pay URL for the order's total.
func (g *MoMoGateway) CreatePaymentLink(ord order.Order) (string, error) {
	requestID := uuid.NewString()
	orderInfo := "Thanh toan don hang " + ord.OrderNumber

	params := map[string]string{
		"accessKey":   g.cfg.AccessKey,
		"amount":      strconv.FormatInt(ord.Total, 10),
		"extraData":   "",
		"ipnUrl":      g.cfg.IPNURL,
		"orderId":     ord.OrderID,
		"orderInfo":   orderInfo,
		"partnerCode": g.cfg.PartnerCode,
		"redirectUrl": g.cfg.RedirectURL,
		"requestId":   requestID,
		"requestType": momoRequestType,
	}
	signature := hmacHex(sha256.New, g.cfg.SecretKey, canonicalString(params, false))

	body, err := json.Marshal(momoCreateRequest{
		PartnerCode: g.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      ord.Total,
		OrderID:     ord.OrderID,
		OrderInfo:   orderInfo,
		RedirectURL: g.cfg.RedirectURL,
		IPNURL:      g.cfg.IPNURL,
		RequestType: momoRequestType,
		ExtraData:   "",
		Lang:        "vi",
		Signature:   signature,
	})
	if err != nil {
		return "", err
	}

	resp, err := g.client.Post(g.cfg.Endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Provider: ProviderMoMo, Message: err.Error()}
	}
	defer resp.Body.Close()

	var result momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &GatewayError{Provider: ProviderMoMo, Message: "malformed response: " + err.Error()}
	}
	if resp.StatusCode != http.StatusOK || result.ResultCode != 0 {
		return "", &GatewayError{Provider: ProviderMoMo, Message: fmt.Sprintf("resultCode %d: %s", result.ResultCode, result.Message)}
	}
	if result.PayURL == "" {
		return "", &GatewayError{Provider: ProviderMoMo, Message: "response carried no payUrl"}
	}
	return result.PayURL, nil
}

// MoMoCallback holds the fields MoMo delivers on both inbound channels.
// All values are kept as strings so the canonical string is rebuilt from
// exactly what was received; the webhook's numeric fields are converted by
// the handler before verification.
type MoMoCallback struct {
	PartnerCode  string
	OrderID      string
	RequestID    string
	Amount       string
	OrderInfo    string
	OrderType    string
	TransID      string
	ResultCode   string
	Message      string
	PayType      string
	ResponseTime string
	ExtraData    string
	Signature    string
}

// Succeeded reports whether the callback signals a completed payment.
// The webhook carries resultCode as an integer, the redirect as a string;
// both parse to the same value here.
func (cb MoMoCallback) Succeeded() bool {
	return cb.ResultCode == "0"
}

// VerifyCallback recomputes the callback signature and compares it against
// the received one.
func (g *MoMoGateway) VerifyCallback(cb MoMoCallback) bool {
	params := map[string]string{
		"accessKey":    g.cfg.AccessKey,
		"amount":       cb.Amount,
		"extraData":    cb.ExtraData,
		"message":      cb.Message,
		"orderId":      cb.OrderID,
		"orderInfo":    cb.OrderInfo,
		"orderType":    cb.OrderType,
		"partnerCode":  cb.PartnerCode,
		"payType":      cb.PayType,
		"requestId":    cb.RequestID,
		"responseTime": cb.ResponseTime,
		"resultCode":   cb.ResultCode,
		"transId":      cb.TransID,
		"signature":    cb.Signature,
	}
	return verifySignature(params, "signature", g.cfg.SecretKey, sha256.New, false)
}
