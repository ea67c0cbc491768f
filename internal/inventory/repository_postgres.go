package inventory

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindVariant(productID, variantID int) (Variant, error) {
	var v Variant
	err := r.db.QueryRow(`SELECT "productID", "variantID", "productName", "productImg", price, "discountPercent", "isOnSale", stock
        FROM product_variants
        WHERE "productID" = $1 AND "variantID" = $2`,
		productID, variantID).Scan(
		&v.ProductID, &v.VariantID, &v.ProductName, &v.ProductImg, &v.Price, &v.DiscountPercent, &v.IsOnSale, &v.Stock)
	if err == sql.ErrNoRows {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

// DecrementStock relies on a conditional UPDATE so the check and the write
// are a single atomic statement at the storage layer.
func (r *PostgresRepository) DecrementStock(variantID, qty int) error {
	res, err := r.db.Exec(`UPDATE product_variants SET stock = stock - $1 WHERE "variantID" = $2 AND stock >= $1`,
		qty, variantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *PostgresRepository) RestockVariant(variantID, qty int) error {
	res, err := r.db.Exec(`UPDATE product_variants SET stock = stock + $1 WHERE "variantID" = $2`,
		qty, variantID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
