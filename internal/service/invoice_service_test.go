package service

import (
	"testing"

	"carpetcare/internal/model"

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

func fixedCarpet(price string) model.Carpet {
	return model.Carpet{
		CarpetType: &model.CarpetType{Name: "Synthetic", PricingMode: model.PricingModeFixed, BasePrice: dec(price)},
	}
}

func TestCalculateInvoiceDiscountAndTax(t *testing.T) {
	carpets := []model.Carpet{fixedCarpet("120"), fixedCarpet("80")}
	tax := &model.TaxSetting{Mode: model.TaxModePercentage, Rate: dec("6"), IsActive: true}

	// 200 subtotal, 10% discount -> 180 taxable, 6% tax -> 10.80
	comp := CalculateInvoice(carpets, tax, dec("10"), model.DiscountModePercentage)

	if !comp.Subtotal.Equal(dec("200")) {
		t.Errorf("Subtotal = %s, want 200", comp.Subtotal)
	}
	if !comp.DiscountAmount.Equal(dec("20")) {
		t.Errorf("DiscountAmount = %s, want 20", comp.DiscountAmount)
	}
	if !comp.TaxAmount.Equal(dec("10.80")) {
		t.Errorf("TaxAmount = %s, want 10.80", comp.TaxAmount)
	}
	if !comp.TotalAmount.Equal(dec("190.80")) {
		t.Errorf("TotalAmount = %s, want 190.80", comp.TotalAmount)
	}
}

func TestCalculateInvoiceDiscountClamps(t *testing.T) {
	carpets := []model.Carpet{fixedCarpet("100")}

	tests := []struct {
		name     string
		discount string
		mode     string
		want     string
	}{
		{"fixed discount larger than subtotal clamps to subtotal", "250", model.DiscountModeFixed, "100"},
		{"negative discount clamps to zero", "-10", model.DiscountModeFixed, "0"},
		{"percentage over 100 clamps to subtotal", "150", model.DiscountModePercentage, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := CalculateInvoice(carpets, nil, dec(tt.discount), tt.mode)
			if !comp.DiscountAmount.Equal(dec(tt.want)) {
				t.Errorf("DiscountAmount = %s, want %s", comp.DiscountAmount, tt.want)
			}
			if comp.TotalAmount.IsNegative() {
				t.Errorf("TotalAmount = %s, must not be negative", comp.TotalAmount)
			}
		})
	}
}

func TestCalculateInvoiceItemOrdering(t *testing.T) {
	scotch := &model.AddonService{Name: "Scotchgard", PricingMode: model.PricingModeFixed, BasePrice: dec("15")}
	deodor := &model.AddonService{Name: "Deodorizing", PricingMode: model.PricingModeFixed, BasePrice: dec("10")}

	first := fixedCarpet("50")
	first.AddonServices = []model.CarpetAddonService{
		{AddonService: scotch},
		{AddonService: deodor},
	}
	second := fixedCarpet("30")

	comp := CalculateInvoice([]model.Carpet{first, second}, nil, decimal.Zero, model.DiscountModeFixed)

	wantTypes := []string{
		model.ItemTypeCarpetBase,
		model.ItemTypeAddonService,
		model.ItemTypeAddonService,
		model.ItemTypeCarpetBase,
	}
	if len(comp.Items) != len(wantTypes) {
		t.Fatalf("got %d items, want %d", len(comp.Items), len(wantTypes))
	}
	for i, item := range comp.Items {
		if item.ItemType != wantTypes[i] {
			t.Errorf("item %d type = %s, want %s", i, item.ItemType, wantTypes[i])
		}
		if item.SortOrder != i {
			t.Errorf("item %d sort order = %d, want %d", i, item.SortOrder, i)
		}
	}
	if !comp.Subtotal.Equal(dec("105")) {
		t.Errorf("Subtotal = %s, want 105", comp.Subtotal)
	}
}

func TestCalculateInvoiceAddonOverride(t *testing.T) {
	addon := &model.AddonService{Name: "Scotchgard", PricingMode: model.PricingModeFixed, BasePrice: dec("15")}
	carpet := fixedCarpet("50")
	carpet.AddonServices = []model.CarpetAddonService{
		{AddonService: addon, PriceOverride: decPtr("9.99")},
	}

	comp := CalculateInvoice([]model.Carpet{carpet}, nil, decimal.Zero, model.DiscountModeFixed)
	if !comp.Subtotal.Equal(dec("59.99")) {
		t.Errorf("Subtotal = %s, want 59.99", comp.Subtotal)
	}
}

func TestCalculateInvoiceFixedTax(t *testing.T) {
	carpets := []model.Carpet{fixedCarpet("100")}

	tests := []struct {
		name      string
		tax       *model.TaxSetting
		wantTax   string
		wantTotal string
	}{
		{"fixed tax adds flat amount", &model.TaxSetting{Mode: model.TaxModeFixed, Rate: dec("5"), IsActive: true}, "5", "105"},
		{"inactive tax applies nothing", &model.TaxSetting{Mode: model.TaxModePercentage, Rate: dec("6"), IsActive: false}, "0", "100"},
		{"no tax setting applies nothing", nil, "0", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := CalculateInvoice(carpets, tt.tax, decimal.Zero, model.DiscountModeFixed)
			if !comp.TaxAmount.Equal(dec(tt.wantTax)) {
				t.Errorf("TaxAmount = %s, want %s", comp.TaxAmount, tt.wantTax)
			}
			if !comp.TotalAmount.Equal(dec(tt.wantTotal)) {
				t.Errorf("TotalAmount = %s, want %s", comp.TotalAmount, tt.wantTotal)
			}
		})
	}
}

func TestCalculateInvoicePerAreaCarpet(t *testing.T) {
	carpet := model.Carpet{
		CarpetType:        &model.CarpetType{Name: "Wool", PricingMode: model.PricingModePerArea, BasePrice: dec("0.75")},
		Width:             decPtr("4"),
		Length:            decPtr("5"),
		AdditionalCharges: dec("10"),
	}

	comp := CalculateInvoice([]model.Carpet{carpet}, nil, decimal.Zero, model.DiscountModeFixed)
	if !comp.Subtotal.Equal(dec("25")) {
		t.Errorf("Subtotal = %s, want 25.00", comp.Subtotal)
	}
	if len(comp.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(comp.Items))
	}
	if comp.Items[0].Name != "Carpet cleaning (Wool)" {
		t.Errorf("item name = %q", comp.Items[0].Name)
	}
}
