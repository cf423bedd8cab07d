package checkout

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/selection"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
)

// UnitRequest is one rental unit synthesized from a cart line.
type UnitRequest struct {
	Index     int
	ItemIndex int
	UnitIndex int
	CostumeID uuid.UUID
	Size      string
	Input     rentals.CreateInput
}

// Expand turns cart lines into one request per unit, in cart order. Every
// request shares the customer and dates and carries the line's size in its
// notes so identical units stay distinguishable.
func Expand(items []selection.Item, customerID uuid.UUID, rentalDate, expectedReturnDate types.Date, notes string) []UnitRequest {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}

	out := make([]UnitRequest, 0, total)
	for itemIndex, item := range items {
		tagged := SizeTaggedNotes(notes, item.Size)
		for unit := 0; unit < item.Quantity; unit++ {
			unitNotes := tagged
			out = append(out, UnitRequest{
				Index:     len(out),
				ItemIndex: itemIndex,
				UnitIndex: unit,
				CostumeID: item.Costume.ID,
				Size:      item.Size,
				Input: rentals.CreateInput{
					CustomerID:         customerID,
					CostumeID:          item.Costume.ID,
					RentalDate:         rentalDate,
					ExpectedReturnDate: expectedReturnDate,
					Notes:              &unitNotes,
				},
			})
		}
	}
	return out
}

// SizeTaggedNotes appends the size tag to the staff notes.
func SizeTaggedNotes(notes, size string) string {
	tag := fmt.Sprintf("(Size: %s)", size)
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return tag
	}
	return notes + " " + tag
}
