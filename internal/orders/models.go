package orders

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // minor currency units
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Order struct {
	ID              int64       `json:"id"`
	OrderCode       string      `json:"order_code"`
	ClientRequestID *string     `json:"client_request_id,omitempty"`
	UserID          int64       `json:"user_id"`
	Status          Status      `json:"status"` // lihat status.go
	Subtotal        int64       `json:"subtotal"`
	ShippingFee     int64       `json:"shipping_fee"`
	TotalPrice      int64       `json:"total_price"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	ShippingAddress string      `json:"shipping_address"`
	City            string      `json:"city"`
	ShippingMethod  string      `json:"shipping_method"`
	TrackingCode    *string     `json:"tracking_code,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem freezes title and unit price at checkout time. ProductID is
// nullable so the line survives a later product delete.
type OrderItem struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"order_id"`
	ProductID    *int64 `json:"product_id,omitempty"`
	ProductTitle string `json:"product_title"`
	UnitPrice    int64  `json:"unit_price"`
	Qty          int    `json:"qty"`
	Subtotal     int64  `json:"subtotal"`
}

type CartLine struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type CustomerInfo struct {
	Name    string `json:"customer_name"`
	Email   string `json:"customer_email"`
	Phone   string `json:"customer_phone,omitempty"`
	Address string `json:"shipping_address"`
	City    string `json:"city"`
}

// ProductStock is the read-only shape the storefront polls before checkout.
type ProductStock struct {
	ID       int64 `json:"id"`
	Stock    int   `json:"stock"`
	IsActive bool  `json:"is_active"`
}

type DashboardStats struct {
	TotalOrders    int            `json:"total_orders"`
	TodayOrders    int            `json:"today_orders"`
	TotalProducts  int            `json:"total_products"`
	TotalRevenue   int64          `json:"total_revenue"`
	TodayRevenue   int64          `json:"today_revenue"`
	OrdersByStatus map[Status]int `json:"orders_by_status"`
	LatestOrders   []Order        `json:"latest_orders"`
}
