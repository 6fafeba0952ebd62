package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCarpetTypePrice(t *testing.T) {
	tests := []struct {
		name   string
		ctype  CarpetType
		width  *decimal.Decimal
		length *decimal.Decimal
		want   string
	}{
		{
			name:  "fixed mode ignores dimensions",
			ctype: CarpetType{PricingMode: PricingModeFixed, BasePrice: dec("50")},
			width: decPtr("10"), length: decPtr("10"),
			want: "50",
		},
		{
			name:  "per area multiplies by width and length",
			ctype: CarpetType{PricingMode: PricingModePerArea, BasePrice: dec("0.75")},
			width: decPtr("4"), length: decPtr("5"),
			want: "15",
		},
		{
			name:  "per area without dimensions falls back to base",
			ctype: CarpetType{PricingMode: PricingModePerArea, BasePrice: dec("0.75")},
			want:  "0.75",
		},
		{
			name:  "per area missing one dimension falls back to base",
			ctype: CarpetType{PricingMode: PricingModePerArea, BasePrice: dec("2")},
			width: decPtr("6"),
			want:  "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ctype.Price(tt.width, tt.length)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Price() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAddonServicePrice(t *testing.T) {
	carpet := &Carpet{Width: decPtr("4"), Length: decPtr("5")}

	tests := []struct {
		name     string
		addon    AddonService
		carpet   *Carpet
		override *decimal.Decimal
		want     string
	}{
		{
			name:  "fixed mode returns base price",
			addon: AddonService{PricingMode: PricingModeFixed, BasePrice: dec("15")},
			want:  "15",
		},
		{
			name:   "per area scales by square footage",
			addon:  AddonService{PricingMode: PricingModePerArea, BasePrice: dec("0.50")},
			carpet: carpet,
			want:   "10",
		},
		{
			name:   "per area without dimensions falls back to base",
			addon:  AddonService{PricingMode: PricingModePerArea, BasePrice: dec("0.50")},
			carpet: &Carpet{},
			want:   "0.50",
		},
		{
			name:     "override wins over computed price",
			addon:    AddonService{PricingMode: PricingModePerArea, BasePrice: dec("0.50")},
			carpet:   carpet,
			override: decPtr("7.25"),
			want:     "7.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.addon.Price(tt.carpet, tt.override)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Price() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCarpetTotalPrice(t *testing.T) {
	perArea := &CarpetType{Name: "Wool", PricingMode: PricingModePerArea, BasePrice: dec("0.75")}
	addon := &AddonService{Name: "Scotchgard", PricingMode: PricingModeFixed, BasePrice: dec("15")}

	carpet := Carpet{
		CarpetType:        perArea,
		Width:             decPtr("4"),
		Length:            decPtr("5"),
		AdditionalCharges: dec("10"),
		AddonServices: []CarpetAddonService{
			{AddonService: addon},
		},
	}

	// 0.75 * 20 sqft + 10 additional = 25.00 before addons
	if got := carpet.TotalPrice(false); !got.Equal(dec("25")) {
		t.Errorf("TotalPrice(false) = %s, want 25.00", got)
	}
	// plus the 15.00 addon
	if got := carpet.TotalPrice(true); !got.Equal(dec("40")) {
		t.Errorf("TotalPrice(true) = %s, want 40.00", got)
	}
}

func TestCarpetTotalPriceSkipsUnloadedAddons(t *testing.T) {
	carpet := Carpet{
		AdditionalCharges: dec("5"),
		AddonServices: []CarpetAddonService{
			{AddonService: nil, PriceOverride: decPtr("99")},
		},
	}
	if got := carpet.TotalPrice(true); !got.Equal(dec("5")) {
		t.Errorf("TotalPrice(true) = %s, want 5.00", got)
	}
}

func TestSquareFootage(t *testing.T) {
	c := Carpet{Width: decPtr("3"), Length: decPtr("4.5")}
	got := c.SquareFootage()
	if got == nil || !got.Equal(dec("13.5")) {
		t.Errorf("SquareFootage() = %v, want 13.5", got)
	}
	if (&Carpet{Width: decPtr("3")}).SquareFootage() != nil {
		t.Error("SquareFootage() with missing length should be nil")
	}
}

func TestCommissionTypeAppliesTo(t *testing.T) {
	bounded := CommissionType{
		MinInvoiceAmount: decPtr("100"),
		MaxInvoiceAmount: decPtr("500"),
	}
	if bounded.AppliesTo(dec("99.99")) {
		t.Error("amount below minimum should not apply")
	}
	if !bounded.AppliesTo(dec("100")) {
		t.Error("amount at minimum should apply")
	}
	if !bounded.AppliesTo(dec("500")) {
		t.Error("amount at maximum should apply")
	}
	if bounded.AppliesTo(dec("500.01")) {
		t.Error("amount above maximum should not apply")
	}

	open := CommissionType{}
	if !open.AppliesTo(dec("123456.78")) {
		t.Error("unbounded type should always apply")
	}
}

func TestAgentCommissionTypeOverrides(t *testing.T) {
	base := &CommissionType{FixedAmount: dec("30"), PercentageRate: dec("5")}

	link := AgentCommissionType{CommissionType: base}
	if !link.Fixed().Equal(dec("30")) || !link.Percentage().Equal(dec("5")) {
		t.Errorf("link without overrides should use type values, got %s / %s", link.Fixed(), link.Percentage())
	}

	link.FixedOverride = decPtr("45")
	link.PercentageOverride = decPtr("0")
	if !link.Fixed().Equal(dec("45")) {
		t.Errorf("Fixed() = %s, want override 45", link.Fixed())
	}
	if !link.Percentage().Equal(dec("0")) {
		t.Errorf("Percentage() = %s, want override 0", link.Percentage())
	}
}
