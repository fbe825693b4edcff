// Package services holds the business logic between the HTTP handlers and
// the repositories: pricing, the booking payment lifecycle, the catalog and
// local auth.
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

// depositRate is the default deposit: 30% of the total price, rounded
// half-up to satang, unless the booking carries an explicit override.
var depositRate = decimal.RequireFromString("0.30")

// SelectionPolicy grants a wider menu-selection ceiling to packages whose
// per-table price falls inside a promotional band. The ceiling only gates
// how many items a customer may pick when revising a booking; overage
// pricing itself is never capped.
type SelectionPolicy struct {
	PriceLow       models.Money
	PriceHigh      models.Money
	AllowanceBonus int
}

// defaultAllowanceBonus is how far past the free limit any package lets a
// customer select.
const defaultAllowanceBonus = 2

// selectionPolicies is a business-policy table, not derived math: the
// 3000-3500 baht sets get one extra selection over everyone else.
var selectionPolicies = []SelectionPolicy{
	{PriceLow: models.MoneyFromBaht(3000), PriceHigh: models.MoneyFromBaht(3500), AllowanceBonus: 3},
}

// SelectionCeiling returns the maximum number of menu items a customer may
// ever have selected on the given package.
func SelectionCeiling(pkg models.PackageSnapshot) int {
	bonus := defaultAllowanceBonus
	for _, p := range selectionPolicies {
		if pkg.PricePerTable.Cmp(p.PriceLow) >= 0 && pkg.PricePerTable.Cmp(p.PriceHigh) <= 0 {
			bonus = p.AllowanceBonus
		}
	}
	return pkg.MaxSelect + bonus
}

// Quote is the priced outcome of a booking request.
type Quote struct {
	BasePrice       models.Money
	ExtraMenuCount  int
	ExtraMenuCost   models.Money
	TotalPrice      models.Money
	DepositRequired models.Money
}

// QuoteBooking prices a booking from its package snapshot, table count and
// menu selection. Pure: usable both at creation and at menu revision.
//
//	extraCount = max(0, selected - maxSelect)
//	extraCost  = extraCount * extraMenuPrice * tableCount
//	total      = tableCount * pricePerTable + extraCost
//	deposit    = override, or round(total * 0.30)
func QuoteBooking(pkg models.PackageSnapshot, tableCount, selectedCount int, depositOverride *models.Money) (Quote, error) {
	if tableCount < 1 {
		return Quote{}, fmt.Errorf("%w: table count must be at least 1", models.ErrInvalidArgument)
	}
	if selectedCount < 0 {
		return Quote{}, fmt.Errorf("%w: selected menu count must not be negative", models.ErrInvalidArgument)
	}
	if !pkg.PricePerTable.IsPositive() {
		return Quote{}, fmt.Errorf("%w: package price per table must be positive", models.ErrInvalidArgument)
	}

	extraCount := selectedCount - pkg.MaxSelect
	if extraCount < 0 {
		extraCount = 0
	}
	extraCost := pkg.ExtraMenuPrice.MulInt(extraCount).MulInt(tableCount)
	base := pkg.PricePerTable.MulInt(tableCount)
	total := base.Add(extraCost)

	var deposit models.Money
	if depositOverride != nil {
		if depositOverride.IsNegative() {
			return Quote{}, fmt.Errorf("%w: deposit override must not be negative", models.ErrInvalidArgument)
		}
		deposit = *depositOverride
	} else {
		deposit = total.MulRate(depositRate)
	}

	return Quote{
		BasePrice:       base,
		ExtraMenuCount:  extraCount,
		ExtraMenuCost:   extraCost,
		TotalPrice:      total,
		DepositRequired: deposit,
	}, nil
}
