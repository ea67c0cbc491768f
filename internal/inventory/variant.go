package inventory

// Variant is a purchasable configuration of a product with its own
// price and stock. Prices are integral currency units (VND, no cents).
type Variant struct {
	ProductID       int    `json:"productId"`
	VariantID       int    `json:"variantId"`
	ProductName     string `json:"productName"`
	ProductImg      string `json:"productImg,omitempty"`
	Price           int64  `json:"price"`
	DiscountPercent int    `json:"discountPercent"`
	IsOnSale        bool   `json:"isOnSale"`
	Stock           int    `json:"stock"`
}
