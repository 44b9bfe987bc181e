package generator

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
)

// Events generates clickstream events for uniformly drawn customers, over a window that
// reaches further back than the order window.
func (g *Generator) Events(ctx context.Context, customers []domain.Customer) ([]domain.ClickstreamEvent, error) {
	n := g.cfg.Events
	if n > 0 && len(customers) == 0 {
		return nil, domain.Invalidf("%d events requested without customers", n)
	}
	g.progress.StageStarted(domain.EntityClickstream, n)
	g.logger.Info("generating clickstream events", zap.Int("count", n))

	start, end := g.cfg.EventWindow()

	events := make([]domain.ClickstreamEvent, 0, n)
	for i := 0; i < n; i++ {
		if err := g.tick(ctx, i); err != nil {
			return nil, err
		}

		customer := customers[g.src.IntN(len(customers))]
		ts := g.src.Timestamp(start, end, browsingHours)

		events = append(events, domain.ClickstreamEvent{
			EventID:    g.src.UUID(),
			SessionID:  g.src.UUID(),
			UserEmail:  customer.Email,
			Timestamp:  ts,
			Type:       eventTypeChoice.Draw(g.src),
			ProductID:  g.src.IntN(g.cfg.Products) + 1,
			PageURL:    g.pagePath(),
			DeviceType: deviceChoice.Draw(g.src),
			Browser:    browserChoice.Draw(g.src),
		})
	}

	slices.SortStableFunc(events, func(a, b domain.ClickstreamEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	g.finish(domain.EntityClickstream, len(events), len(events))
	g.logger.Info("generated clickstream events",
		zap.Int("count", len(events)),
		zap.Any("event_type_distribution", distribution(events, func(e domain.ClickstreamEvent) string { return e.Type })),
		zap.Any("device_distribution", distribution(events, func(e domain.ClickstreamEvent) string { return e.DeviceType })))
	return events, nil
}

// pagePath builds an opaque one to three segment path.
func (g *Generator) pagePath() string {
	depth := g.src.IntN(3) + 1
	parts := make([]string, depth)
	for i := range parts {
		parts[i] = emailPart(g.src.Fake().Word())
		if parts[i] == "" {
			parts[i] = "page"
		}
	}
	return "/" + strings.Join(parts, "/")
}
