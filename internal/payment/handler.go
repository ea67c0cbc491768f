package payment

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ndmanh/techstore-backend/internal/auth"
	"github.com/ndmanh/techstore-backend/internal/metrics"
	"github.com/ndmanh/techstore-backend/internal/order"
)

// Handler exposes the outbound pay-link endpoints and the inbound callback
// channels for both providers. Callback routes are public: the providers
// authenticate themselves through the payload signature, nothing else.
type Handler struct {
	momo        *MoMoGateway
	vnpay       *VNPayGateway
	orders      *order.Service
	reconciler  *Reconciler
	frontendURL string
	log         *zap.Logger
}

func NewHandler(momo *MoMoGateway, vnpay *VNPayGateway, orders *order.Service, rec *Reconciler, frontendURL string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{momo: momo, vnpay: vnpay, orders: orders, reconciler: rec, frontendURL: frontendURL, log: log}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/momo", h.createMoMoLink)
	app.Post("/api/v1/payments/vnpay", h.createVNPayLink)
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/payments/momo/return", h.momoReturn)
	app.Post("/api/v1/payments/momo/ipn", h.momoIPN)
	app.Get("/api/v1/payments/vnpay/return", h.vnpayReturn)
	app.Get("/api/v1/payments/vnpay/ipn", h.vnpayIPN)
}

type createLinkRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) createMoMoLink(c *fiber.Ctx) error {
	ord, ok := h.orderForLink(c, order.PaymentMoMo)
	if !ok {
		return nil
	}
	payURL, err := h.momo.CreatePaymentLink(ord)
	if err != nil {
		return h.gatewayFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "payUrl": payURL})
}

func (h *Handler) createVNPayLink(c *fiber.Ctx) error {
	ord, ok := h.orderForLink(c, order.PaymentVNPay)
	if !ok {
		return nil
	}
	payURL, err := h.vnpay.CreatePaymentLink(ord, c.IP())
	if err != nil {
		return h.gatewayFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "payUrl": payURL})
}

// orderForLink loads the caller's order and checks it is still payable
// with the given method. On failure it writes the error response and
// reports ok=false.
func (h *Handler) orderForLink(c *fiber.Ctx, method string) (order.Order, bool) {
	payload := new(createLinkRequest)
	if err := c.BodyParser(payload); err != nil {
		_ = fail(c, fiber.StatusBadRequest, err.Error())
		return order.Order{}, false
	}
	if payload.OrderID == "" {
		_ = fail(c, fiber.StatusBadRequest, "orderId is required")
		return order.Order{}, false
	}
	buyerID, err := auth.BuyerIDFromCtx(c)
	if err != nil {
		_ = fail(c, fiber.StatusUnauthorized, "unauthorized")
		return order.Order{}, false
	}
	ord, err := h.orders.GetForBuyer(buyerID, payload.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			_ = fail(c, fiber.StatusNotFound, "order not found")
		} else {
			_ = fail(c, fiber.StatusInternalServerError, err.Error())
		}
		return order.Order{}, false
	}
	if ord.PaymentMethod != method {
		_ = fail(c, fiber.StatusBadRequest, "order does not use this payment method")
		return order.Order{}, false
	}
	if ord.PaymentStatus == order.PaymentStatusPaid {
		_ = fail(c, fiber.StatusConflict, "order is already paid")
		return order.Order{}, false
	}
	return ord, true
}

func (h *Handler) gatewayFailure(c *fiber.Ctx, err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return fail(c, fiber.StatusBadGateway, gwErr.Error())
	}
	return fail(c, fiber.StatusInternalServerError, err.Error())
}

// momoIPNRequest mirrors the webhook body, where amount, transId,
// resultCode and responseTime arrive as JSON numbers. The redirect channel
// carries the same fields as query strings; both funnel into MoMoCallback.
type momoIPNRequest struct {
	PartnerCode  string      `json:"partnerCode"`
	OrderID      string      `json:"orderId"`
	RequestID    string      `json:"requestId"`
	Amount       json.Number `json:"amount"`
	OrderInfo    string      `json:"orderInfo"`
	OrderType    string      `json:"orderType"`
	TransID      json.Number `json:"transId"`
	ResultCode   json.Number `json:"resultCode"`
	Message      string      `json:"message"`
	PayType      string      `json:"payType"`
	ResponseTime json.Number `json:"responseTime"`
	ExtraData    string      `json:"extraData"`
	Signature    string      `json:"signature"`
}

// momoIPN is the channel of record for MoMo results. The response is an
// acknowledgement in every case except a signature failure, so the
// provider does not storm us with redeliveries over internal errors.
func (h *Handler) momoIPN(c *fiber.Ctx) error {
	var req momoIPNRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelWebhook, "rejected").Inc()
		h.log.Warn("momo ipn payload unreadable", zap.Error(err))
		return c.JSON(fiber.Map{"resultCode": 97, "message": "invalid payload"})
	}
	cb := MoMoCallback{
		PartnerCode:  req.PartnerCode,
		OrderID:      req.OrderID,
		RequestID:    req.RequestID,
		Amount:       req.Amount.String(),
		OrderInfo:    req.OrderInfo,
		OrderType:    req.OrderType,
		TransID:      req.TransID.String(),
		ResultCode:   req.ResultCode.String(),
		Message:      req.Message,
		PayType:      req.PayType,
		ResponseTime: req.ResponseTime.String(),
		ExtraData:    req.ExtraData,
		Signature:    req.Signature,
	}

	if !h.momo.VerifyCallback(cb) {
		metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelWebhook, "rejected").Inc()
		h.log.Warn("momo ipn signature mismatch", zap.String("orderId", cb.OrderID))
		return c.JSON(fiber.Map{"resultCode": 97, "message": "invalid signature"})
	}

	outcome := "failed"
	if cb.Succeeded() {
		outcome = "paid"
	}
	err := h.reconciler.Apply(Intent{
		OrderID:       cb.OrderID,
		Provider:      ProviderMoMo,
		TransactionID: cb.TransID,
		ResultCode:    cb.ResultCode,
		Succeeded:     cb.Succeeded(),
	})
	if err != nil {
		// Still acknowledged; the provider must not redeliver over our
		// internal failures.
		outcome = "error"
	}
	metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelWebhook, outcome).Inc()
	return c.JSON(fiber.Map{"resultCode": 0, "message": "acknowledged"})
}

// momoReturn handles the browser redirect. It is informational only: the
// user's browser may never deliver it, so it must not mutate state.
func (h *Handler) momoReturn(c *fiber.Ctx) error {
	cb := MoMoCallback{
		PartnerCode:  c.Query("partnerCode"),
		OrderID:      c.Query("orderId"),
		RequestID:    c.Query("requestId"),
		Amount:       c.Query("amount"),
		OrderInfo:    c.Query("orderInfo"),
		OrderType:    c.Query("orderType"),
		TransID:      c.Query("transId"),
		ResultCode:   c.Query("resultCode"),
		Message:      c.Query("message"),
		PayType:      c.Query("payType"),
		ResponseTime: c.Query("responseTime"),
		ExtraData:    c.Query("extraData"),
		Signature:    c.Query("signature"),
	}

	if !h.momo.VerifyCallback(cb) {
		metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelRedirect, "rejected").Inc()
		h.log.Warn("momo return signature mismatch", zap.String("orderId", cb.OrderID))
		return c.Redirect(h.frontendURL+"/payment/failure?code=invalid_signature", fiber.StatusFound)
	}
	if cb.Succeeded() {
		metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelRedirect, "paid").Inc()
		return c.Redirect(h.frontendURL+"/payment/success?orderId="+cb.OrderID, fiber.StatusFound)
	}
	metrics.PaymentCallbacks.WithLabelValues(ProviderMoMo, ChannelRedirect, "failed").Inc()
	return c.Redirect(h.frontendURL+"/payment/failure?orderId="+cb.OrderID+"&code="+cb.ResultCode, fiber.StatusFound)
}

// vnpayIPN is the channel of record for VNPay results.
func (h *Handler) vnpayIPN(c *fiber.Ctx) error {
	params := c.Queries()

	if !h.vnpay.VerifyCallback(params) {
		metrics.PaymentCallbacks.WithLabelValues(ProviderVNPay, ChannelWebhook, "rejected").Inc()
		h.log.Warn("vnpay ipn signature mismatch", zap.String("txnRef", params["vnp_TxnRef"]))
		return c.JSON(fiber.Map{"RspCode": "97", "Message": "Invalid signature"})
	}

	orderID := OrderIDFromTxnRef(params["vnp_TxnRef"])
	succeeded := params["vnp_ResponseCode"] == "00"

	outcome := "failed"
	if succeeded {
		outcome = "paid"
	}
	err := h.reconciler.Apply(Intent{
		OrderID:       orderID,
		Provider:      ProviderVNPay,
		TransactionID: params["vnp_TransactionNo"],
		ResultCode:    params["vnp_ResponseCode"],
		Succeeded:     succeeded,
	})
	if err != nil {
		outcome = "error"
	}
	metrics.PaymentCallbacks.WithLabelValues(ProviderVNPay, ChannelWebhook, outcome).Inc()
	return c.JSON(fiber.Map{"RspCode": "00", "Message": "Confirm success"})
}

// vnpayReturn handles the browser redirect for VNPay. Informational only.
func (h *Handler) vnpayReturn(c *fiber.Ctx) error {
	params := c.Queries()

	if !h.vnpay.VerifyCallback(params) {
		metrics.PaymentCallbacks.WithLabelValues(ProviderVNPay, ChannelRedirect, "rejected").Inc()
		h.log.Warn("vnpay return signature mismatch", zap.String("txnRef", params["vnp_TxnRef"]))
		return c.Redirect(h.frontendURL+"/payment/failure?code=invalid_signature", fiber.StatusFound)
	}

	orderID := OrderIDFromTxnRef(params["vnp_TxnRef"])
	if params["vnp_ResponseCode"] == "00" {
		metrics.PaymentCallbacks.WithLabelValues(ProviderVNPay, ChannelRedirect, "paid").Inc()
		return c.Redirect(h.frontendURL+"/payment/success?orderId="+orderID, fiber.StatusFound)
	}
	metrics.PaymentCallbacks.WithLabelValues(ProviderVNPay, ChannelRedirect, "failed").Inc()
	return c.Redirect(h.frontendURL+"/payment/failure?orderId="+orderID+"&code="+params["vnp_ResponseCode"], fiber.StatusFound)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
