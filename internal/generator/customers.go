package generator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
)

// Customers generates the customer batch. Emails embed the row sequence, which keeps them
// unique within a run without any collision check.
func (g *Generator) Customers(ctx context.Context) ([]domain.Customer, error) {
	n := g.cfg.Customers
	g.progress.StageStarted(domain.EntityCustomers, n)
	g.logger.Info("generating customers", zap.Int("count", n))

	ref := midnight(g.cfg.ReferenceDate)
	earliest := ref.AddDate(0, 0, -g.cfg.LookbackDays)
	fake := g.src.Fake()

	customers := make([]domain.Customer, 0, n)
	for i := 0; i < n; i++ {
		if err := g.tick(ctx, i); err != nil {
			return nil, err
		}

		registered := g.src.Date(earliest, ref)
		segment := segmentChoice.Draw(g.src)
		segmentStart := registered
		if g.src.Chance(segmentChangeRate) {
			segmentStart = g.src.Date(registered, ref)
		}

		first, last := fake.FirstName(), fake.LastName()
		customers = append(customers, domain.Customer{
			Email:            customerEmail(first, last, i+1, fake.DomainName()),
			FirstName:        first,
			LastName:         last,
			Phone:            truncate(fake.PhoneFormatted(), phoneMaxLen),
			RegistrationDate: registered,
			Segment:          segment,
			SegmentStartDate: segmentStart,
			SegmentEndDate:   nil,
			IsCurrent:        true,
		})
	}

	g.finish(domain.EntityCustomers, len(customers), len(customers))
	g.logger.Info("generated customers",
		zap.Int("count", len(customers)),
		zap.Any("segment_distribution", distribution(customers, func(c domain.Customer) domain.Segment { return c.Segment })))
	return customers, nil
}

func customerEmail(first, last string, seq int, host string) string {
	local := emailPart(first)
	if l := emailPart(last); l != "" {
		if local != "" {
			local += "."
		}
		local += l
	}
	if local == "" {
		local = "customer"
	}
	if host == "" {
		host = "example.com"
	}
	return fmt.Sprintf("%s.%d@%s", local, seq, strings.ToLower(host))
}

func emailPart(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
