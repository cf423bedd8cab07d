package selection

import (
	"testing"

	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func costume(price string, available int) Costume {
	return Costume{
		ID:             uuid.New(),
		Name:           "Pirate",
		SellPrice:      decimal.RequireFromString(price),
		AvailableStock: available,
	}
}

func TestAddItemMergesSameCostumeAndSize(t *testing.T) {
	cart := New()
	pirate := costume("50", 5)

	if err := cart.AddItem(pirate, "M", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.AddItem(pirate, "M", 1); err != nil {
		t.Fatalf("add again: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", cart.Items[0].Quantity)
	}
	if cart.TotalItems() != 3 {
		t.Fatalf("expected total items 3, got %d", cart.TotalItems())
	}
}

func TestAddItemKeepsDifferentSizesApart(t *testing.T) {
	cart := New()
	pirate := costume("50", 5)

	_ = cart.AddItem(pirate, "M", 1)
	_ = cart.AddItem(pirate, "L", 1)

	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines for two sizes, got %d", len(cart.Items))
	}
}

func TestAddItemMergeDoesNotRecheckStock(t *testing.T) {
	cart := New()
	pirate := costume("50", 2)

	if err := cart.AddItem(pirate, "M", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.AddItem(pirate, "M", 2); err != nil {
		t.Fatalf("merge should not be capped: %v", err)
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("expected merged quantity above stock, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemValidatesQuantity(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: -1},
		{name: "above stock", quantity: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cart := New()
			err := cart.AddItem(costume("10", 3), "S", tc.quantity)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %s", pkgerrors.CodeOf(err))
			}
			if !cart.IsEmpty() {
				t.Fatalf("cart should be unchanged on rejection")
			}
		})
	}
}

func TestAddItemRequiresSize(t *testing.T) {
	cart := New()
	if err := cart.AddItem(costume("10", 3), "  ", 1); err == nil {
		t.Fatalf("expected blank size to be rejected")
	}
}

func TestRemoveItemOutOfRangeIsNoop(t *testing.T) {
	cart := New()
	_ = cart.AddItem(costume("10", 3), "S", 1)
	_ = cart.AddItem(costume("20", 3), "M", 2)

	cart.RemoveItem(5)
	cart.RemoveItem(-1)
	if len(cart.Items) != 2 {
		t.Fatalf("expected cart unchanged, got %d lines", len(cart.Items))
	}

	cart.RemoveItem(0)
	if len(cart.Items) != 1 || cart.Items[0].Size != "M" {
		t.Fatalf("expected first line removed, got %+v", cart.Items)
	}
}

func TestSetItemQuantitySkipsStockCheck(t *testing.T) {
	cart := New()
	_ = cart.AddItem(costume("10", 2), "S", 1)

	if err := cart.SetItemQuantity(0, 9); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if cart.Items[0].Quantity != 9 {
		t.Fatalf("expected quantity 9, got %d", cart.Items[0].Quantity)
	}
	if err := cart.SetItemQuantity(3, 1); err != nil {
		t.Fatalf("out of range should be ignored: %v", err)
	}
	if err := cart.SetItemQuantity(0, 0); err == nil {
		t.Fatalf("expected zero quantity to be rejected")
	}
}

func TestTotalPriceAndClear(t *testing.T) {
	cart := New()
	_ = cart.AddItem(costume("50", 5), "M", 2)
	_ = cart.AddItem(costume("12.50", 5), "S", 3)

	want := decimal.RequireFromString("137.5")
	if !cart.TotalPrice().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, cart.TotalPrice())
	}

	cart.Clear()
	if !cart.IsEmpty() || cart.TotalItems() != 0 || !cart.TotalPrice().IsZero() {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	cart := New()
	_ = cart.AddItem(costume("10", 3), "S", 1)

	snap := cart.Snapshot()
	snap[0].Quantity = 99
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("snapshot mutation leaked into cart")
	}
}
