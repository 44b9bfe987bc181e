package generator

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
)

// Orders generates the order batch for previously generated customers.
//
// Customers are split once into a frequent cohort (FrequentShare of them) and the rest; each
// order comes from the cohort with probability FrequentOrderShare, which concentrates orders
// on a few customers. The result is sorted by order date and numbered from 1 in that order.
func (g *Generator) Orders(ctx context.Context, customers []domain.Customer) ([]domain.Order, error) {
	n := g.cfg.Orders
	if n > 0 && len(customers) == 0 {
		return nil, domain.Invalidf("%d orders requested without customers", n)
	}
	g.progress.StageStarted(domain.EntityOrders, n)
	g.logger.Info("generating orders", zap.Int("count", n))

	frequent, occasional := g.splitCohort(len(customers))
	start, end := g.cfg.OrderWindow()
	fake := g.src.Fake()

	orders := make([]domain.Order, 0, n)
	for i := 0; i < n; i++ {
		if err := g.tick(ctx, i); err != nil {
			return nil, err
		}

		customer := customers[g.pickCustomer(frequent, occasional)]
		orderDate := g.src.Timestamp(start, end, shoppingHours)

		bounds, ok := orderTotalRanges[customer.Segment]
		if !ok {
			bounds = orderTotalRanges[domain.SegmentBronze]
		}
		total := decimal.NewFromFloat(g.src.Uniform(bounds.lo, bounds.hi)).Round(2)

		orders = append(orders, domain.Order{
			CustomerEmail:   customer.Email,
			OrderDate:       orderDate,
			Total:           total,
			PaymentMethod:   paymentChoice.Draw(g.src),
			ShippingAddress: shippingAddress(fake.Street(), fake.City(), fake.StateAbr(), fake.Zip()),
			Status:          statusChoice.Draw(g.src),
		})
	}

	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return a.OrderDate.Compare(b.OrderDate)
	})
	for i := range orders {
		orders[i].ID = i + 1
	}

	g.finish(domain.EntityOrders, len(orders), len(orders))
	fields := []zap.Field{
		zap.Int("count", len(orders)),
		zap.Any("status_distribution", distribution(orders, func(o domain.Order) string { return o.Status })),
	}
	if len(orders) > 0 {
		fields = append(fields,
			zap.Time("first_order", orders[0].OrderDate),
			zap.Time("last_order", orders[len(orders)-1].OrderDate))
	}
	g.logger.Info("generated orders", fields...)
	return orders, nil
}

// splitCohort shuffles customer indexes and cuts off the frequent share.
func (g *Generator) splitCohort(n int) (frequent, occasional []int) {
	if n == 0 {
		return nil, nil
	}
	idx := g.src.Perm(n)
	k := int(float64(n) * g.cfg.FrequentShare)
	return idx[:k], idx[k:]
}

func (g *Generator) pickCustomer(frequent, occasional []int) int {
	fromFrequent := g.src.Chance(g.cfg.FrequentOrderShare)
	switch {
	case fromFrequent && len(frequent) > 0, len(occasional) == 0:
		return frequent[g.src.IntN(len(frequent))]
	default:
		return occasional[g.src.IntN(len(occasional))]
	}
}

func shippingAddress(street, city, state, zip string) string {
	return street + ", " + city + ", " + state + " " + zip
}
