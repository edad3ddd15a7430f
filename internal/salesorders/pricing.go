package salesorders

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PriceLine computes the derived amounts of one line. No rounding is applied:
// excl has the unit price's scale and tax is exact at rate/100.
func PriceLine(unitPrice decimal.Decimal, quantity int, taxRate decimal.Decimal) LineAmounts {
	excl := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	tax := excl.Mul(taxRate).Div(hundred)
	return LineAmounts{
		Excl: excl,
		Tax:  tax,
		Incl: excl.Add(tax),
	}
}

// Aggregate sums the line amounts into order totals. An empty set yields zeros.
func Aggregate(lines []SalesOrderLine) Totals {
	var t Totals
	for _, l := range lines {
		t.Excl = t.Excl.Add(l.Amounts.Excl)
		t.Tax = t.Tax.Add(l.Amounts.Tax)
		t.Incl = t.Incl.Add(l.Amounts.Incl)
	}
	return t
}

// priceLines resolves each input against items and prices it. Inputs whose
// item is missing from items are returned in skipped and left out of lines.
func priceLines(items map[int64]Item, inputs []LineInput) (lines []SalesOrderLine, skipped []int64) {
	lines = make([]SalesOrderLine, 0, len(inputs))
	for _, in := range inputs {
		it, ok := items[in.ItemID]
		if !ok {
			skipped = append(skipped, in.ItemID)
			continue
		}
		lines = append(lines, SalesOrderLine{
			ItemID:          in.ItemID,
			Note:            in.Note,
			Quantity:        in.Quantity,
			UnitPrice:       it.UnitPrice,
			TaxRate:         in.TaxRate,
			Amounts:         PriceLine(it.UnitPrice, in.Quantity, in.TaxRate),
			ItemCode:        it.Code,
			ItemDescription: it.Description,
		})
	}
	return lines, skipped
}
