package selection

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Costume is the catalog snapshot a cart line is priced and capped against.
type Costume struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	AvailableStock int             `json:"available_stock"`
}

// Item is one cart line. (Costume.ID, Size) identifies the line.
type Item struct {
	Costume  Costume `json:"costume"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
}

// LineTotal is the line's sell price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Costume.SellPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Builder is an in-progress cart. The zero value is an empty cart ready to use.
// A Builder is owned by a single staff session and is not safe for concurrent
// mutation.
type Builder struct {
	Items []Item `json:"items"`
}

// New returns an empty cart.
func New() *Builder {
	return &Builder{}
}

// AddItem adds quantity units of costume in size. The quantity is checked
// against the costume's known available stock. A second pick of the same
// costume and size is merged into the existing line by summing quantities;
// the merged total is not re-checked against stock.
func (b *Builder) AddItem(costume Costume, size string, quantity int) error {
	size = strings.TrimSpace(size)
	if costume.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "costume is required")
	}
	if size == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity > costume.AvailableStock {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("only %d available", costume.AvailableStock)).
			WithDetails(map[string]any{
				"costume_id":      costume.ID,
				"quantity":        quantity,
				"available_stock": costume.AvailableStock,
			})
	}

	for i := range b.Items {
		if b.Items[i].Costume.ID == costume.ID && b.Items[i].Size == size {
			b.Items[i].Quantity += quantity
			return nil
		}
	}

	b.Items = append(b.Items, Item{Costume: costume, Size: size, Quantity: quantity})
	return nil
}

// RemoveItem drops the line at index. Out of range indexes are ignored.
func (b *Builder) RemoveItem(index int) {
	if index < 0 || index >= len(b.Items) {
		return
	}
	b.Items = append(b.Items[:index], b.Items[index+1:]...)
}

// SetItemQuantity overwrites the quantity of the line at index without
// re-checking stock. Out of range indexes are ignored.
func (b *Builder) SetItemQuantity(index int, quantity int) error {
	if index < 0 || index >= len(b.Items) {
		return nil
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	b.Items[index].Quantity = quantity
	return nil
}

// TotalItems is the number of units across all lines.
func (b *Builder) TotalItems() int {
	total := 0
	for _, item := range b.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of every line's price times quantity.
func (b *Builder) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Clear empties the cart.
func (b *Builder) Clear() {
	b.Items = nil
}

// IsEmpty reports whether the cart has no lines.
func (b *Builder) IsEmpty() bool {
	return len(b.Items) == 0
}

// Snapshot returns a copy of the lines in insertion order.
func (b *Builder) Snapshot() []Item {
	out := make([]Item, len(b.Items))
	copy(out, b.Items)
	return out
}
