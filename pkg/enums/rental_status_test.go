package enums

import "testing"

func TestParseRentalStatusCaseInsensitive(t *testing.T) {
	cases := map[string]RentalStatus{
		"ACTIVE":     RentalStatusActive,
		"overdue":    RentalStatusOverdue,
		" Returned ": RentalStatusReturned,
		"cancelled":  RentalStatusCancelled,
	}
	for raw, want := range cases {
		got, err := ParseRentalStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s got %s", raw, want, got)
		}
	}
	if _, err := ParseRentalStatus("lost"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestRentalStatusTerminal(t *testing.T) {
	if RentalStatusActive.IsTerminal() || RentalStatusOverdue.IsTerminal() {
		t.Fatalf("active and overdue are not terminal")
	}
	if !RentalStatusReturned.IsTerminal() || !RentalStatusCancelled.IsTerminal() {
		t.Fatalf("returned and cancelled are terminal")
	}
}
