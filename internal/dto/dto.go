// Package dto holds the JSON shapes exchanged between the store API and its
// clients.
package dto

import "time"

// Invoice statuses as they appear on the wire.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserResponse struct {
	User User `json:"user"`
}

type UserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// UserPatch updates only the fields that are set.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type UserList struct {
	Users    []User `json:"users"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Pages    int    `json:"pages"`
}

type Product struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Barcode    string    `json:"barcode,omitempty"`
	Price      float64   `json:"price"`
	TaxPercent float64   `json:"tax_percent"`
	StockQty   int       `json:"stock_qty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type ProductRequest struct {
	Name       string  `json:"name"`
	Barcode    string  `json:"barcode,omitempty"`
	Price      float64 `json:"price"`
	TaxPercent float64 `json:"tax_percent"`
	StockQty   int     `json:"stock_qty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// ProductPatch updates only the fields that are set. An empty Barcode
// clears it.
type ProductPatch struct {
	Name       *string  `json:"name,omitempty"`
	Barcode    *string  `json:"barcode,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	TaxPercent *float64 `json:"tax_percent,omitempty"`
	StockQty   *int     `json:"stock_qty,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

type ProductList struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Pages    int       `json:"pages"`
}

type Invoice struct {
	ID             uint          `json:"id"`
	InvoiceNumber  string        `json:"invoice_number,omitempty"`
	Status         string        `json:"status"`
	UserID         uint          `json:"user_id"`
	SubtotalAmount float64       `json:"subtotal_amount"`
	TotalTax       float64       `json:"total_tax"`
	DiscountAmount float64       `json:"discount_amount"`
	TotalAmount    float64       `json:"total_amount"`
	CreatedAt      time.Time     `json:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	ItemsCount     int           `json:"items_count"`
	Items          []InvoiceItem `json:"items,omitempty"`
}

func (i *Invoice) IsDraft() bool { return i.Status == StatusDraft }

type InvoiceItem struct {
	ID           uint    `json:"id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Barcode      string  `json:"barcode,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TaxPercent   float64 `json:"tax_percent"`
	LineSubtotal float64 `json:"line_subtotal"`
	LineTax      float64 `json:"line_tax"`
	LineTotal    float64 `json:"line_total"`
}

type InvoiceResponse struct {
	Invoice Invoice `json:"invoice"`
}

type InvoiceList struct {
	Invoices []Invoice `json:"invoices"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Pages    int       `json:"pages"`
}

// AddItemRequest selects the product either by id or by barcode.
type AddItemRequest struct {
	ProductID uint   `json:"product_id,omitempty"`
	Barcode   string `json:"barcode,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity"`
}

// ItemResponse answers item mutations. Item is nil when the line was removed.
type ItemResponse struct {
	Message string       `json:"message"`
	Item    *InvoiceItem `json:"item,omitempty"`
}

type CompleteRequest struct {
	DiscountAmount float64 `json:"discount_amount"`
}

type ScanTokenResponse struct {
	InvoiceID uint      `json:"invoice_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SalesReport struct {
	From          time.Time    `json:"from_date"`
	To            time.Time    `json:"to_date"`
	TotalSales    float64      `json:"total_sales"`
	TotalTax      float64      `json:"total_tax"`
	TotalDiscount float64      `json:"total_discount"`
	InvoiceCount  int64        `json:"invoice_count"`
	TopProducts   []TopProduct `json:"top_products"`
}

type TopProduct struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Barcode       string  `json:"barcode,omitempty"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type Dashboard struct {
	Today          PeriodSummary     `json:"today"`
	Week           PeriodSummary     `json:"week"`
	Month          PeriodSummary     `json:"month"`
	ProductCount   int64             `json:"product_count"`
	LowStock       []LowStockProduct `json:"low_stock"`
	RecentInvoices []RecentInvoice   `json:"recent_invoices"`
}

type PeriodSummary struct {
	TotalSales   float64 `json:"total_sales"`
	InvoiceCount int64   `json:"invoice_count"`
}

type LowStockProduct struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Barcode  string  `json:"barcode,omitempty"`
	StockQty int     `json:"stock_qty"`
	Price    float64 `json:"price"`
}

type RecentInvoice struct {
	ID            uint       `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	TotalAmount   float64    `json:"total_amount"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
