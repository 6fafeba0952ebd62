package service

import (
	"testing"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func activeLink(ct *model.CommissionType) model.AgentCommissionType {
	return model.AgentCommissionType{
		CommissionTypeID: ct.ID,
		CommissionType:   ct,
		IsActive:         true,
	}
}

func TestResolveCommissionPicksHighestApplicable(t *testing.T) {
	low := &model.CommissionType{ID: uuid.New(), Name: "Standard", FixedAmount: dec("30"), IsActive: true}
	high := &model.CommissionType{ID: uuid.New(), Name: "Premium", FixedAmount: dec("45"), IsActive: true}

	agent := &model.Agent{
		CommissionTypes: []model.AgentCommissionType{activeLink(low), activeLink(high)},
	}

	q := ResolveCommission(agent, nil, dec("300"))
	if q.Source != QuoteSourceApplicable {
		t.Fatalf("source = %s, want %s", q.Source, QuoteSourceApplicable)
	}
	if q.CommissionTypeID == nil || *q.CommissionTypeID != high.ID {
		t.Errorf("resolved type = %v, want the higher-paying one", q.CommissionTypeID)
	}
	if !q.Total.Equal(dec("45")) {
		t.Errorf("Total = %s, want 45.00", q.Total)
	}
}

func TestResolveCommissionRespectsAmountBounds(t *testing.T) {
	small := &model.CommissionType{
		ID: uuid.New(), Name: "Small orders", FixedAmount: dec("60"), IsActive: true,
		MaxInvoiceAmount: decPtr("200"),
	}
	large := &model.CommissionType{
		ID: uuid.New(), Name: "Large orders", FixedAmount: dec("40"), PercentageRate: dec("5"), IsActive: true,
		MinInvoiceAmount: decPtr("200.01"),
	}

	agent := &model.Agent{
		CommissionTypes: []model.AgentCommissionType{activeLink(small), activeLink(large)},
	}

	// 500 is out of range for the small-order type even though it pays more.
	q := ResolveCommission(agent, nil, dec("500"))
	if q.CommissionTypeID == nil || *q.CommissionTypeID != large.ID {
		t.Fatalf("resolved type = %v, want the in-range one", q.CommissionTypeID)
	}
	// 40 + 5% of 500
	if !q.Total.Equal(dec("65")) {
		t.Errorf("Total = %s, want 65.00", q.Total)
	}
}

func TestResolveCommissionSkipsInactive(t *testing.T) {
	inactiveType := &model.CommissionType{ID: uuid.New(), FixedAmount: dec("99"), IsActive: false}
	activeType := &model.CommissionType{ID: uuid.New(), FixedAmount: dec("20"), IsActive: true}

	inactiveLink := activeLink(inactiveType)
	disabledLink := activeLink(activeType)
	disabledLink.IsActive = false

	agent := &model.Agent{
		CommissionTypes: []model.AgentCommissionType{
			inactiveLink,
			disabledLink,
			activeLink(activeType),
		},
	}

	q := ResolveCommission(agent, nil, dec("100"))
	if q.CommissionTypeID == nil || *q.CommissionTypeID != activeType.ID {
		t.Errorf("resolved type = %v, want the active link's type", q.CommissionTypeID)
	}
	if !q.Total.Equal(dec("20")) {
		t.Errorf("Total = %s, want 20.00", q.Total)
	}
}

func TestResolveCommissionAgentDefaultFallback(t *testing.T) {
	outOfRange := &model.CommissionType{
		ID: uuid.New(), Name: "Bonus tier", FixedAmount: dec("80"), IsActive: true,
		MinInvoiceAmount: decPtr("1000"),
	}
	defaultType := &model.CommissionType{
		ID: uuid.New(), Name: "House default", FixedAmount: dec("25"), IsActive: true, IsDefault: true,
		MinInvoiceAmount: decPtr("1000"),
	}

	agent := &model.Agent{
		CommissionTypes: []model.AgentCommissionType{activeLink(outOfRange), activeLink(defaultType)},
	}

	// Nothing admits 100, so the default-flagged association wins.
	q := ResolveCommission(agent, nil, dec("100"))
	if q.Source != QuoteSourceAgentDefault {
		t.Fatalf("source = %s, want %s", q.Source, QuoteSourceAgentDefault)
	}
	if q.CommissionTypeID == nil || *q.CommissionTypeID != defaultType.ID {
		t.Errorf("resolved type = %v, want the default-flagged one", q.CommissionTypeID)
	}
}

func TestResolveCommissionGlobalDefault(t *testing.T) {
	global := &model.CommissionType{ID: uuid.New(), Name: "Global", FixedAmount: dec("10"), PercentageRate: dec("2"), IsActive: true}

	agent := &model.Agent{}
	q := ResolveCommission(agent, global, dec("250"))
	if q.Source != QuoteSourceGlobalDefault {
		t.Fatalf("source = %s, want %s", q.Source, QuoteSourceGlobalDefault)
	}
	// 10 + 2% of 250
	if !q.Total.Equal(dec("15")) {
		t.Errorf("Total = %s, want 15.00", q.Total)
	}
}

func TestResolveCommissionLegacyFields(t *testing.T) {
	agent := &model.Agent{
		FixedCommission:      dec("12.50"),
		PercentageCommission: dec("4"),
	}

	q := ResolveCommission(agent, nil, dec("200"))
	if q.Source != QuoteSourceLegacyFields {
		t.Fatalf("source = %s, want %s", q.Source, QuoteSourceLegacyFields)
	}
	if q.CommissionTypeID != nil {
		t.Error("legacy quote must not carry a commission type")
	}
	// 12.50 + 4% of 200
	if !q.Total.Equal(dec("20.50")) {
		t.Errorf("Total = %s, want 20.50", q.Total)
	}
}

func TestResolveCommissionLinkOverrides(t *testing.T) {
	ct := &model.CommissionType{ID: uuid.New(), FixedAmount: dec("30"), PercentageRate: dec("5"), IsActive: true}
	link := activeLink(ct)
	link.FixedOverride = decPtr("50")
	link.PercentageOverride = decPtr("0")

	agent := &model.Agent{CommissionTypes: []model.AgentCommissionType{link}}

	q := ResolveCommission(agent, nil, dec("400"))
	if !q.FixedAmount.Equal(dec("50")) || !q.Percentage.Equal(dec("0")) {
		t.Errorf("quote = %s fixed / %s pct, want overrides 50 / 0", q.FixedAmount, q.Percentage)
	}
	if !q.Total.Equal(dec("50")) {
		t.Errorf("Total = %s, want 50.00", q.Total)
	}
}

func TestQuoteTotalRounding(t *testing.T) {
	// 10 + 3.33% of 123.45 = 14.110885, rounded half-up to 14.11
	got := quoteTotal(dec("10"), dec("3.33"), dec("123.45"))
	if !got.Equal(dec("14.11")) {
		t.Errorf("quoteTotal = %s, want 14.11", got)
	}
	if !got.Equal(decimal.NewFromFloat(14.11)) {
		t.Errorf("quoteTotal = %s, want 14.11", got)
	}
}
