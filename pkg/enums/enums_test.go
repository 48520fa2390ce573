package enums

import "testing"

func TestParsePriceTier(t *testing.T) {
	tier, err := ParsePriceTier("Grosir")
	if err != nil || tier != PriceTierWholesale {
		t.Fatalf("expected wholesale tier, got %q err=%v", tier, err)
	}
	if _, err := ParsePriceTier("grosir"); err == nil {
		t.Fatal("expected case-sensitive tier parsing to fail")
	}
}

func TestParseSessionStoreKind(t *testing.T) {
	for _, raw := range []string{"memory", "redis"} {
		kind, err := ParseSessionStoreKind(raw)
		if err != nil || !kind.IsValid() {
			t.Fatalf("expected %q to parse, got %q err=%v", raw, kind, err)
		}
	}
	if _, err := ParseSessionStoreKind("disk"); err == nil {
		t.Fatal("expected unknown store kind to fail")
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := map[string]SortOrder{"": SortOrderAsc, "ASC": SortOrderAsc, " desc ": SortOrderDesc}
	for raw, want := range tests {
		got, err := ParseSortOrder(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSortOrder(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseSortOrder("sideways"); err == nil {
		t.Fatal("expected invalid order to fail")
	}
}

func TestCashierRoleValidity(t *testing.T) {
	if !CashierRoleKasir.IsValid() || CashierRole("Owner").IsValid() {
		t.Fatal("unexpected cashier role validity")
	}
}

func TestParseProductSortField(t *testing.T) {
	cases := map[string]ProductSortField{
		"":                ProductSortName,
		"nama":            ProductSortName,
		"hargajualretail": ProductSortRetailPrice,
	}
	for input, want := range cases {
		got, err := ParseProductSortField(input)
		if err != nil || got != want {
			t.Fatalf("ParseProductSortField(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseProductSortField("totalStok"); err == nil {
		t.Fatal("expected error for unsupported sort field")
	}
}
