package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"freshkeeper/internal/models"
)

type ShoppingListService interface {
	// ExportPDF renders the user's active shopping list as a printable
	// PDF document.
	ExportPDF(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

type shoppingListService struct {
	inventory InventoryService
}

func NewShoppingListService(inventory InventoryService) ShoppingListService {
	return &shoppingListService{inventory: inventory}
}

func (s *shoppingListService) ExportPDF(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	shopping := models.ListShopping
	items, err := s.inventory.ListLocations(ctx, userID, models.LocationFilter{ListType: &shopping}, 200, 0)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "Shopping List")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, time.Now().Format("02-Jan-2006"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Quantity", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Notes", "B", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range items {
		name := "-"
		if item.Product != nil {
			name = item.Product.Name
			if item.Product.Brand != nil {
				name = fmt.Sprintf("%s (%s)", name, *item.Product.Brand)
			}
		}
		notes := ""
		if item.Notes != nil {
			notes = *item.Notes
		}
		pdf.CellFormat(100, 8, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%g %s", item.Quantity, item.Unit), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, notes, "", 1, "L", false, 0, "")
	}
	if len(items) == 0 {
		pdf.Cell(0, 8, "Nothing on the list.")
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render shopping list PDF: %w", err)
	}
	return buf.Bytes(), nil
}
