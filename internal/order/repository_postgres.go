package order

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `"orderID", "orderNumber", "buyerID", recipient, phone, "addressLine", city,
        "paymentMethod", "paymentStatus", "orderStatus", subtotal, "shippingFee", discount, total, note, "createdAt", "updatedAt"`

const itemColumns = `"itemID", "orderID", "productID", "variantID", "productName", "productImg", "unitPrice", quantity, subtotal, status`

// Create persists the order row and then each item row. There is no
// cross-table transaction here: the order insert and the item inserts are
// independent writes, matching the documented consistency gap.
func (r *PostgresRepository) Create(ord Order) (Order, error) {
	_, err := r.db.Exec(`INSERT INTO orders ("orderID", "orderNumber", "buyerID", recipient, phone, "addressLine", city,
        "paymentMethod", "paymentStatus", "orderStatus", subtotal, "shippingFee", discount, total, note, "createdAt", "updatedAt")
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		ord.OrderID, ord.OrderNumber, ord.BuyerID, ord.Shipping.Recipient, ord.Shipping.Phone,
		ord.Shipping.AddressLine, ord.Shipping.City, ord.PaymentMethod, ord.PaymentStatus, ord.OrderStatus,
		ord.Subtotal, ord.ShippingFee, ord.Discount, ord.Total, ord.Note, ord.CreatedAt, ord.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Order{}, ErrNumberTaken
		}
		return Order{}, err
	}

	for i := range ord.Items {
		ord.Items[i].OrderID = ord.OrderID
		err := r.db.QueryRow(`INSERT INTO order_items ("orderID", "productID", "variantID", "productName", "productImg", "unitPrice", quantity, subtotal, status)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            RETURNING "itemID"`,
			ord.OrderID, ord.Items[i].ProductID, ord.Items[i].VariantID, ord.Items[i].ProductName,
			ord.Items[i].ProductImg, ord.Items[i].UnitPrice, ord.Items[i].Quantity, ord.Items[i].Subtotal,
			ord.Items[i].Status).Scan(&ord.Items[i].ItemID)
		if err != nil {
			return Order{}, err
		}
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(id string) (Order, error) {
	ord, err := r.scanOrder(r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE "orderID" = $1`, id))
	if err != nil {
		return Order{}, err
	}

	items, err := r.itemsByOrderIDs([]string{id})
	if err != nil {
		return Order{}, err
	}
	ord.Items = items[id]
	if ord.Items == nil {
		ord.Items = []OrderItem{}
	}
	return ord, nil
}

func (r *PostgresRepository) ListByBuyer(buyerID int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders WHERE "buyerID" = $1 ORDER BY "createdAt" DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	ids := make([]string, 0)
	for rows.Next() {
		ord, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
		ids = append(ids, ord.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.itemsByOrderIDs(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].OrderID]
		if orders[i].Items == nil {
			orders[i].Items = []OrderItem{}
		}
	}
	return orders, nil
}

// MarkPaid folds the idempotence guard into the UPDATE condition so a
// repeated success callback matches zero rows and touches nothing.
func (r *PostgresRepository) MarkPaid(id, updatedAt string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET "paymentStatus" = $1, "orderStatus" = $2, "updatedAt" = $3
        WHERE "orderID" = $4 AND "paymentStatus" <> $1`,
		PaymentStatusPaid, StatusConfirmed, updatedAt, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) MarkPaymentFailed(id, updatedAt string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET "paymentStatus" = $1, "updatedAt" = $2
        WHERE "orderID" = $3 AND "paymentStatus" <> $4`,
		PaymentStatusFailed, updatedAt, id, PaymentStatusPaid)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) Cancel(id, updatedAt string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET "orderStatus" = $1, "updatedAt" = $2
        WHERE "orderID" = $3 AND "orderStatus" IN ($4, $5)`,
		StatusCancelled, updatedAt, id, StatusPending, StatusConfirmed)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	if _, err := r.db.Exec(`UPDATE order_items SET status = $1 WHERE "orderID" = $2 AND status = $3`,
		ItemCancelled, id, ItemActive); err != nil {
		return true, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanOrder(row rowScanner) (Order, error) {
	var ord Order
	err := row.Scan(&ord.OrderID, &ord.OrderNumber, &ord.BuyerID, &ord.Shipping.Recipient, &ord.Shipping.Phone,
		&ord.Shipping.AddressLine, &ord.Shipping.City, &ord.PaymentMethod, &ord.PaymentStatus, &ord.OrderStatus,
		&ord.Subtotal, &ord.ShippingFee, &ord.Discount, &ord.Total, &ord.Note, &ord.CreatedAt, &ord.UpdatedAt)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) itemsByOrderIDs(ids []string) (map[string][]OrderItem, error) {
	rows, err := r.db.Query(`SELECT `+itemColumns+` FROM order_items WHERE "orderID" = ANY($1::text[]) ORDER BY "itemID"`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]OrderItem)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ItemID, &it.OrderID, &it.ProductID, &it.VariantID, &it.ProductName,
			&it.ProductImg, &it.UnitPrice, &it.Quantity, &it.Subtotal, &it.Status); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
