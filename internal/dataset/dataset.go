// Package dataset loads the raw retail order tables from CSV and joins them
// into the order-line records the summary builder consumes.
package dataset

import "time"

// Logical table names for the nine input CSVs.
const (
	TableCustomers           = "customers"
	TableGeolocation         = "geolocation"
	TableOrderItems          = "order_items"
	TableOrderPayments       = "order_payments"
	TableOrderReviews        = "order_reviews"
	TableOrders              = "orders"
	TableProducts            = "products"
	TableSellers             = "sellers"
	TableCategoryTranslation = "category_translation"
)

// DefaultFilenames maps each logical table to its conventional filename in
// the data directory. Only orders, order_items, and customers are required
// by the loader; the rest are listed so callers can validate a full drop.
var DefaultFilenames = map[string]string{
	TableCustomers:           "olist_customers_dataset.csv",
	TableGeolocation:         "olist_geolocation_dataset.csv",
	TableOrderItems:          "olist_order_items_dataset.csv",
	TableOrderPayments:       "olist_order_payments_dataset.csv",
	TableOrderReviews:        "olist_order_reviews_dataset.csv",
	TableOrders:              "olist_orders_dataset.csv",
	TableProducts:            "olist_products_dataset.csv",
	TableSellers:             "olist_sellers_dataset.csv",
	TableCategoryTranslation: "product_category_name_translation.csv",
}

// timestampLayout matches the datetime format used across the order tables.
const timestampLayout = "2006-01-02 15:04:05"

// OrderLine is one sold unit: an order-item row joined with its order and
// customer. PurchasedAt is always set; the delivery timestamps may be zero
// for undelivered orders, in which case the derived day counts are zero.
type OrderLine struct {
	OrderID       string    `json:"order_id"`
	OrderItemID   int       `json:"order_item_id"`
	ProductID     string    `json:"product_id"`
	SellerID      string    `json:"seller_id"`
	Price         float64   `json:"price"`
	FreightValue  float64   `json:"freight_value"`
	CustomerID    string    `json:"customer_id"`
	CustomerCity  string    `json:"customer_city"`
	CustomerState string    `json:"customer_state"`
	PurchasedAt   time.Time `json:"order_purchase_timestamp"`
	DeliveredAt   time.Time `json:"order_delivered_customer_date,omitzero"`
	EstimatedAt   time.Time `json:"order_estimated_delivery_date,omitzero"`

	// DeliveryDays is the purchase-to-delivery span in fractional days;
	// DeliveryDiffDays is estimated minus actual delivery (positive = early).
	// Both are zero when the order has no delivery timestamp.
	DeliveryDays     float64 `json:"delivery_time_days"`
	DeliveryDiffDays float64 `json:"delivery_diff_days"`
}
