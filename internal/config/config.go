package config

import (
	"os"
	"strconv"
)

// MoMoConfig holds the merchant credentials for the MoMo gateway.
// All values are injected from the environment; nothing is hardcoded.
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
}

// VNPayConfig holds the merchant credentials for the VNPay gateway.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	Endpoint   string
	ReturnURL  string
}

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	// FrontendURL is the base URL the payment return handlers redirect to.
	FrontendURL string
	// ShippingFee is a flat fee in currency units, independent of destination.
	// City-based free shipping is an extension point, not implemented.
	ShippingFee int64

	MoMo  MoMoConfig
	VNPay VNPayConfig
}

func Load() Config {
	return Config{
		Addr:        envOr("TECHSTORE_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontendURL: envOr("FRONTEND_URL", "http://localhost:3000"),
		ShippingFee: envInt64("SHIPPING_FEE", 30000),
		MoMo: MoMoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			Endpoint:    envOr("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			RedirectURL: envOr("MOMO_REDIRECT_URL", "http://localhost:8080/api/v1/payments/momo/return"),
			IPNURL:      envOr("MOMO_IPN_URL", "http://localhost:8080/api/v1/payments/momo/ipn"),
		},
		VNPay: VNPayConfig{
			TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
			HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
			Endpoint:   envOr("VNPAY_ENDPOINT", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  envOr("VNPAY_RETURN_URL", "http://localhost:8080/api/v1/payments/vnpay/return"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
