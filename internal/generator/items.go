package generator

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
)

var (
	cent          = decimal.New(1, -2)
	discountShare = decimal.NewFromFloat(maxDiscountShare)
)

// OrderItems generates 1-5 line items per order whose line totals add back up to the order
// total, give or take rounding.
func (g *Generator) OrderItems(ctx context.Context, orders []domain.Order) ([]domain.OrderItem, error) {
	g.progress.StageStarted(domain.EntityOrderItems, len(orders))
	g.logger.Info("generating order items", zap.Int("orders", len(orders)))

	items := make([]domain.OrderItem, 0, len(orders)*2)
	for i, order := range orders {
		if err := g.tick(ctx, i); err != nil {
			return nil, err
		}
		count := itemCountChoice.Draw(g.src)
		items = append(items, AllocateItems(g.src, order.ID, order.Total, count, g.cfg.Products)...)
	}

	g.finish(domain.EntityOrderItems, len(orders), len(items))

	fields := []zap.Field{
		zap.Int("count", len(items)),
		zap.Int("products_referenced", len(distribution(items, func(it domain.OrderItem) int { return it.ProductID }))),
	}
	if len(orders) > 0 {
		fields = append(fields, zap.Float64("avg_items_per_order", float64(len(items))/float64(len(orders))))
	}
	g.logger.Info("generated order items", fields...)
	return items, nil
}

// AllocateItems splits total across count line items.
//
// Every item but the last spends a random amount bounded by its fair share of what is left
// (remaining / items left), between itemPriceFloor and itemPriceCap. The last item takes the
// remainder, so the lines sum to total within quantity × half a cent, discount included. A remainder pushed
// slightly negative by rounding is kept as is; there is no rebalancing pass.
func AllocateItems(src *Source, orderID int, total decimal.Decimal, count, products int) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, count)
	remaining := total

	for i := 0; i < count; i++ {
		item := domain.OrderItem{
			OrderID:   orderID,
			ProductID: src.IntN(products) + 1,
			Quantity:  quantityChoice.Draw(src),
		}
		qty := decimal.NewFromInt(int64(item.Quantity))

		if i < count-1 {
			share := remaining.Div(decimal.NewFromInt(int64(count - i))).InexactFloat64()
			gross := math.Min(share, itemPriceCap)
			if gross > itemPriceFloor {
				gross = src.Uniform(itemPriceFloor, gross)
			}
			item.UnitPrice = atLeastCent(decimal.NewFromFloat(gross / float64(item.Quantity)).Round(2))
			item.DiscountAmount = drawDiscount(src, item.Gross())
		} else {
			// A discount on the last line is carried by grossing its unit price up, so the
			// line still nets to the remainder. Keep the gross-up: pricing the line at the
			// remainder and then subtracting the discount would leave the order up to 30%
			// short of its total and fail the conservation check.
			discount := drawDiscount(src, remaining)
			item.UnitPrice = atLeastCent(remaining.Add(discount).Div(qty).Round(2))
			item.DiscountAmount = capDiscount(discount, item.Gross())
		}

		remaining = remaining.Sub(item.LineTotal())
		items = append(items, item)
	}
	return items
}

// drawDiscount applies with probability discountRate an amount between minDiscount and 30%
// of base (or up to 30% of base when that is below minDiscount).
func drawDiscount(src *Source, base decimal.Decimal) decimal.Decimal {
	if !src.Chance(discountRate) || !base.IsPositive() {
		return decimal.Zero
	}
	ceiling := base.Mul(discountShare).InexactFloat64()
	lo := math.Min(minDiscount, ceiling)
	return capDiscount(decimal.NewFromFloat(src.Uniform(lo, ceiling)).Round(2), base)
}

// capDiscount keeps a discount within 30% of the gross line value, rounded down to the cent.
func capDiscount(discount, gross decimal.Decimal) decimal.Decimal {
	ceiling := gross.Mul(discountShare).RoundFloor(2)
	if discount.GreaterThan(ceiling) {
		return ceiling
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

func atLeastCent(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(cent) {
		return cent
	}
	return d
}
