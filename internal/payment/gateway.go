package payment

// Provider names, also used as metric labels.
const (
	ProviderMoMo  = "momo"
	ProviderVNPay = "vnpay"
)

// Callback channels. The webhook is the channel of record; the redirect is
// informational only and never mutates state.
const (
	ChannelWebhook  = "webhook"
	ChannelRedirect = "redirect"
)

// GatewayError carries a provider's raw failure message. Gateway calls are
// never retried automatically.
type GatewayError struct {
	Provider string
	Message  string
}

func (e *GatewayError) Error() string {
	return e.Provider + " gateway: " + e.Message
}

// Intent is the transient correlation of a verified provider callback with
// an order. It is never persisted; its only effect is the conditional
// transition applied to the order's payment status.
type Intent struct {
	OrderID       string
	Provider      string
	TransactionID string
	ResultCode    string
	Succeeded     bool
}
