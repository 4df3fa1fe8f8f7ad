package handlers

import (
	"github.com/diewo77/scanpos/internal/dto"
	"github.com/diewo77/scanpos/internal/models"
)

func toUser(u *models.User) dto.User {
	return dto.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

func toProduct(p *models.Product) dto.Product {
	return dto.Product{
		ID:         p.ID,
		Name:       p.Name,
		Barcode:    p.BarcodeValue(),
		Price:      p.Price,
		TaxPercent: p.TaxPercent,
		StockQty:   p.StockQty,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
	}
}

func toItem(it *models.InvoiceItem) dto.InvoiceItem {
	out := dto.InvoiceItem{
		ID:           it.ID,
		ProductID:    it.ProductID,
		ProductName:  it.ProductName(),
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
		TaxPercent:   it.TaxPercent,
		LineSubtotal: it.LineSubtotal,
		LineTax:      it.LineTax,
		LineTotal:    it.LineTotal,
	}
	if it.Product != nil {
		out.Barcode = it.Product.BarcodeValue()
	}
	return out
}

func toInvoice(inv *models.Invoice) dto.Invoice {
	out := dto.Invoice{
		ID:             inv.ID,
		InvoiceNumber:  inv.Number(),
		Status:         string(inv.Status),
		UserID:         inv.UserID,
		SubtotalAmount: inv.SubtotalAmount,
		TotalTax:       inv.TotalTax,
		DiscountAmount: inv.DiscountAmount,
		TotalAmount:    inv.TotalAmount,
		CreatedAt:      inv.CreatedAt,
		CompletedAt:    inv.CompletedAt,
		ItemsCount:     len(inv.Items),
	}
	if len(inv.Items) > 0 {
		out.Items = make([]dto.InvoiceItem, len(inv.Items))
		for i := range inv.Items {
			out.Items[i] = toItem(&inv.Items[i])
		}
	}
	return out
}
