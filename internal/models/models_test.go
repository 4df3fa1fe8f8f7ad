package models

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInvoiceItem_CalculateLineTotals(t *testing.T) {
	tests := []struct {
		name         string
		qty          int
		price, tax   float64
		sub, lt, tot float64
	}{
		{"5% on 100", 1, 100, 5, 100, 5, 105},
		{"5% on 2x25", 2, 25, 5, 50, 2.5, 52.5},
		{"no tax", 3, 1.1, 0, 3.3, 0, 3.3},
		{"rounded to cents", 3, 0.99, 7, 2.97, 0.21, 3.18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &InvoiceItem{Quantity: tt.qty, UnitPrice: tt.price, TaxPercent: tt.tax}
			item.CalculateLineTotals()
			if item.LineSubtotal != tt.sub || item.LineTax != tt.lt || item.LineTotal != tt.tot {
				t.Errorf("got %v/%v/%v, want %v/%v/%v",
					item.LineSubtotal, item.LineTax, item.LineTotal, tt.sub, tt.lt, tt.tot)
			}
		})
	}
}

func TestInvoice_Recalculate(t *testing.T) {
	inv := &Invoice{
		DiscountAmount: 10,
		Items: []InvoiceItem{
			{LineSubtotal: 100, LineTax: 5},
			{LineSubtotal: 50, LineTax: 2.5},
		},
	}
	inv.Recalculate()
	if inv.SubtotalAmount != 150 || inv.TotalTax != 7.5 || inv.TotalAmount != 147.5 {
		t.Errorf("totals = %v / %v / %v", inv.SubtotalAmount, inv.TotalTax, inv.TotalAmount)
	}
}

func TestInvoice_Status(t *testing.T) {
	inv := &Invoice{Status: InvoiceStatusDraft}
	if !inv.CanEdit() || inv.IsCompleted() {
		t.Error("draft should be editable")
	}
	inv.Status = InvoiceStatusCompleted
	if inv.CanEdit() || !inv.IsCompleted() {
		t.Error("completed invoice should not be editable")
	}
	if inv.Number() != "" {
		t.Error("expected empty number")
	}
}

func TestProduct_PriceWithTax(t *testing.T) {
	p := &Product{Price: 100, TaxPercent: 5.5}
	if got := p.PriceWithTax(); got != 105.5 {
		t.Errorf("PriceWithTax() = %v, want 105.5", got)
	}
}

func TestGenerateInvoiceNumber(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	day := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	n, err := GenerateInvoiceNumber(db, day)
	if err != nil || n != "INV-20240501-0001" {
		t.Fatalf("first number = %q, %v", n, err)
	}

	for _, num := range []string{"INV-20240501-0001", "INV-20240501-0002", "INV-20240430-0009"} {
		num := num
		if err := db.Create(&Invoice{UserID: 1, Status: InvoiceStatusCompleted, InvoiceNumber: &num}).Error; err != nil {
			t.Fatal(err)
		}
	}

	n, err = GenerateInvoiceNumber(db, day)
	if err != nil || n != "INV-20240501-0003" {
		t.Errorf("next number = %q, %v", n, err)
	}
	n, _ = GenerateInvoiceNumber(db, day.AddDate(0, 0, 1))
	if n != "INV-20240502-0001" {
		t.Errorf("new day number = %q", n)
	}
}

func TestGenerateInvoiceNumberPastFourDigits(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	day := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	for _, num := range []string{"INV-20240501-9998", "INV-20240501-9999", "INV-20240501-10000"} {
		num := num
		if err := db.Create(&Invoice{UserID: 1, Status: InvoiceStatusCompleted, InvoiceNumber: &num}).Error; err != nil {
			t.Fatal(err)
		}
	}

	n, err := GenerateInvoiceNumber(db, day)
	if err != nil || n != "INV-20240501-10001" {
		t.Errorf("next number = %q, %v", n, err)
	}
}
