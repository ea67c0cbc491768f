package payment

import (
	"time"

	"go.uber.org/zap"

	"github.com/ndmanh/techstore-backend/internal/order"
)

// Reconciler applies verified payment results to orders. Both inbound
// channels of both providers funnel through Apply, so repeated or
// out-of-order deliveries of the same logical event converge on the same
// final state.
type Reconciler struct {
	orders order.Repository
	log    *zap.Logger
}

func NewReconciler(orders order.Repository, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{orders: orders, log: log}
}

// Apply performs the single conditional state transition for an intent.
// A success that finds the order already paid is a no-op; a failure never
// touches orderStatus.
func (r *Reconciler) Apply(intent Intent) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if intent.Succeeded {
		updated, err := r.orders.MarkPaid(intent.OrderID, now)
		if err != nil {
			r.log.Error("mark paid failed",
				zap.String("orderId", intent.OrderID),
				zap.String("provider", intent.Provider),
				zap.Error(err))
			return err
		}
		if !updated {
			r.log.Info("duplicate success callback ignored",
				zap.String("orderId", intent.OrderID),
				zap.String("provider", intent.Provider),
				zap.String("transId", intent.TransactionID))
			return nil
		}
		r.log.Info("order paid",
			zap.String("orderId", intent.OrderID),
			zap.String("provider", intent.Provider),
			zap.String("transId", intent.TransactionID))
		return nil
	}

	updated, err := r.orders.MarkPaymentFailed(intent.OrderID, now)
	if err != nil {
		r.log.Error("mark payment failed errored",
			zap.String("orderId", intent.OrderID),
			zap.String("provider", intent.Provider),
			zap.Error(err))
		return err
	}
	if updated {
		r.log.Info("payment failed",
			zap.String("orderId", intent.OrderID),
			zap.String("provider", intent.Provider),
			zap.String("resultCode", intent.ResultCode))
	}
	return nil
}
