package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ndmanh/techstore-backend/internal/auth"
	"github.com/ndmanh/techstore-backend/internal/inventory"
	"github.com/ndmanh/techstore-backend/internal/metrics"
)

// Handler exposes the order endpoints. All routes require a buyer token.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders", h.createOrder)
	app.Get("/api/v1/orders", h.listOrders)
	app.Get("/api/v1/orders/:id", h.getOrder)
	app.Post("/api/v1/orders/:id/cancel", h.cancelOrder)
}

type createOrderRequest struct {
	Shipping      ShippingInfo `json:"shippingInfo"`
	PaymentMethod string       `json:"paymentMethod"`
	Note          string       `json:"note"`
	Items         []LineItem   `json:"items"`
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if len(payload.Items) == 0 {
		return fail(c, fiber.StatusBadRequest, "order must contain at least one item")
	}
	if payload.Shipping.Recipient == "" || payload.Shipping.Phone == "" || payload.Shipping.AddressLine == "" {
		return fail(c, fiber.StatusBadRequest, "shipping info is incomplete")
	}

	buyerID, err := auth.BuyerIDFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	created, err := h.service.Create(CreateOrderInput{
		BuyerID:       buyerID,
		Shipping:      payload.Shipping,
		PaymentMethod: payload.PaymentMethod,
		Note:          payload.Note,
		Items:         payload.Items,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPaymentMethod):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, inventory.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "product or variant not found")
		case errors.Is(err, inventory.ErrInsufficientStock):
			return fail(c, fiber.StatusConflict, err.Error())
		default:
			return fail(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	metrics.OrdersCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "order": created})
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	buyerID, err := auth.BuyerIDFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	orders, err := h.service.ListForBuyer(buyerID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "orders": orders})
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	buyerID, err := auth.BuyerIDFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	ord, err := h.service.GetForBuyer(buyerID, c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "order not found")
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "order": ord})
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	buyerID, err := auth.BuyerIDFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	ord, err := h.service.Cancel(buyerID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fail(c, fiber.StatusNotFound, "order not found")
		case errors.Is(err, ErrNotCancellable):
			return fail(c, fiber.StatusConflict, "order can no longer be cancelled")
		default:
			return fail(c, fiber.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(fiber.Map{"success": true, "order": ord})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
