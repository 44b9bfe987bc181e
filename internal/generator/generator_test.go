package generator

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
	"github.com/fastygo/shopgen/internal/infrastructure/export"
)

var referenceDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func testConfig() config.GeneratorConfig {
	cfg := config.DefaultGenerator()
	cfg.Customers = 10
	cfg.Orders = 50
	cfg.Events = 200
	cfg.ReferenceDate = referenceDate
	return cfg
}

func run(t *testing.T, cfg config.GeneratorConfig) *domain.Dataset {
	t.Helper()
	ds, err := New(cfg, NewSource(cfg.Seed), nil, nil).Run(context.Background())
	require.NoError(t, err)
	return ds
}

func TestRunSmallScenario(t *testing.T) {
	ds := run(t, testConfig())

	require.Len(t, ds.Customers, 10)
	require.Len(t, ds.Orders, 50)
	require.Len(t, ds.Events, 200)

	emails := make(map[string]bool)
	for _, c := range ds.Customers {
		emails[c.Email] = true
	}
	for i, o := range ds.Orders {
		assert.True(t, emails[o.CustomerEmail], "order %d references unknown customer", o.ID)
		assert.Equal(t, i+1, o.ID)
		if i > 0 {
			assert.False(t, o.OrderDate.Before(ds.Orders[i-1].OrderDate))
		}
	}

	byOrder := ds.ItemsByOrder()
	for _, o := range ds.Orders {
		items := byOrder[o.ID]
		require.NotEmpty(t, items)
		require.LessOrEqual(t, len(items), 5)
	}
	for _, it := range ds.OrderItems {
		assert.GreaterOrEqual(t, it.OrderID, 1)
		assert.LessOrEqual(t, it.OrderID, 50)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 50, 300, 1000

	first := writeChecksums(t, run(t, cfg))
	second := writeChecksums(t, run(t, cfg))
	assert.Equal(t, first, second)

	cfg.Seed++
	third := writeChecksums(t, run(t, cfg))
	assert.NotEqual(t, first, third)
}

func writeChecksums(t *testing.T, ds *domain.Dataset) map[string]uint64 {
	t.Helper()
	files, err := export.NewCSVWriter(t.TempDir()).Write(context.Background(), ds)
	require.NoError(t, err)
	out := make(map[string]uint64, len(files))
	for _, f := range files {
		out[f.Entity] = f.Checksum
	}
	return out
}

func TestCustomers(t *testing.T) {
	cfg := testConfig()
	cfg.Customers = 2000
	cfg.Orders, cfg.Events = 0, 0
	ds := run(t, cfg)

	earliest := referenceDate.AddDate(0, 0, -cfg.LookbackDays)
	emails := make(map[string]struct{}, len(ds.Customers))
	changed := 0
	for _, c := range ds.Customers {
		_, dup := emails[c.Email]
		require.False(t, dup, "duplicate email %s", c.Email)
		emails[c.Email] = struct{}{}

		assert.Contains(t, c.Email, "@")
		assert.LessOrEqual(t, len(c.Phone), 20)
		assert.True(t, c.Segment.Valid())
		assert.True(t, c.IsCurrent)
		assert.Nil(t, c.SegmentEndDate)
		assert.False(t, c.RegistrationDate.Before(earliest))
		assert.False(t, c.RegistrationDate.After(referenceDate))
		assert.False(t, c.SegmentStartDate.Before(c.RegistrationDate))
		assert.False(t, c.SegmentStartDate.After(referenceDate))
		if !c.SegmentStartDate.Equal(c.RegistrationDate) {
			changed++
		}
	}
	// at most the segment change rate, less the draws that landed on the registration day
	assert.Less(t, float64(changed)/float64(len(ds.Customers)), segmentChangeRate+0.05)
}

func TestCustomerEmail(t *testing.T) {
	assert.Equal(t, "anna.oconnor.7@shop.example", customerEmail("Anna", "O'Connor", 7, "Shop.Example"))
	assert.Equal(t, "customer.1@example.com", customerEmail("", "", 1, ""))
	assert.Equal(t, "li.2@x.io", customerEmail("", "Li", 2, "x.io"))
}

func TestOrderTotalsFollowSegment(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 200, 2000, 0
	ds := run(t, cfg)

	customers := ds.CustomerByEmail()
	start, end := cfg.OrderWindow()
	for _, o := range ds.Orders {
		c := customers[o.CustomerEmail]
		require.NotNil(t, c)
		bounds := orderTotalRanges[c.Segment]
		total := o.Total.InexactFloat64()
		assert.GreaterOrEqual(t, total, bounds.lo)
		assert.LessOrEqual(t, total, bounds.hi)
		assert.True(t, o.Total.Equal(o.Total.Round(2)))

		assert.False(t, o.OrderDate.Before(start))
		assert.True(t, o.OrderDate.Before(end.AddDate(0, 0, 1)))
		assert.True(t, o.OrderDate.Before(referenceDate))
	}
}

func TestOrdersConcentrateOnFrequentCustomers(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 1000, 5000, 0
	ds := run(t, cfg)

	perCustomer := make(map[string]int)
	for _, o := range ds.Orders {
		perCustomer[o.CustomerEmail]++
	}
	counts := make([]int, 0, len(ds.Customers))
	for _, c := range ds.Customers {
		counts = append(counts, perCustomer[c.Email])
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	top := 0
	for _, n := range counts[:200] {
		top += n
	}
	assert.Greater(t, float64(top)/float64(len(ds.Orders)), 0.6)
}

func TestAllOrdersFromOccasionalWhenNoFrequentCohort(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 3, 100, 0
	cfg.FrequentShare = 0.2 // int(3*0.2) == 0 customers in the cohort
	ds := run(t, cfg)
	assert.Len(t, ds.Orders, 100)
}

func TestEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 20, 0, 3000
	ds := run(t, cfg)

	emails := make(map[string]bool)
	for _, c := range ds.Customers {
		emails[c.Email] = true
	}
	start, end := cfg.EventWindow()
	ids := make(map[string]bool)
	for i, e := range ds.Events {
		assert.False(t, ids[e.EventID], "duplicate event id")
		ids[e.EventID] = true
		assert.NotEmpty(t, e.SessionID)
		assert.True(t, emails[e.UserEmail])
		assert.GreaterOrEqual(t, e.ProductID, 1)
		assert.LessOrEqual(t, e.ProductID, cfg.Products)
		assert.False(t, e.Timestamp.Before(start))
		assert.True(t, e.Timestamp.Before(end.AddDate(0, 0, 1)))
		assert.Regexp(t, `^/[a-z0-9]+(/[a-z0-9]+){0,2}$`, e.PageURL)
		if i > 0 {
			assert.False(t, e.Timestamp.Before(ds.Events[i-1].Timestamp))
		}
	}
}

func TestRunZeroCounts(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 0, 0, 0
	ds := run(t, cfg)
	assert.Empty(t, ds.Customers)
	assert.Empty(t, ds.Orders)
	assert.Empty(t, ds.OrderItems)
	assert.Empty(t, ds.Events)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.GeneratorConfig)
	}{
		{"orders without customers", func(c *config.GeneratorConfig) { c.Customers = 0 }},
		{"events without customers", func(c *config.GeneratorConfig) { c.Customers, c.Orders = 0, 0 }},
		{"negative customers", func(c *config.GeneratorConfig) { c.Customers = -1 }},
		{"empty catalog", func(c *config.GeneratorConfig) { c.Products = 0 }},
		{"share out of range", func(c *config.GeneratorConfig) { c.FrequentOrderShare = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, NewSource(cfg.Seed), nil, nil).Run(context.Background())
			require.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
		})
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	_, err := New(cfg, NewSource(cfg.Seed), nil, nil).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type recordingProgress struct {
	started  []string
	rows     int
	finished map[string]int
}

func (p *recordingProgress) StageStarted(entity string, _ int) { p.started = append(p.started, entity) }
func (p *recordingProgress) RowsGenerated(n int)               { p.rows += n }
func (p *recordingProgress) StageFinished(entity string, rows int) {
	if p.finished == nil {
		p.finished = make(map[string]int)
	}
	p.finished[entity] = rows
}

func TestRunReportsProgress(t *testing.T) {
	cfg := testConfig()
	cfg.Customers, cfg.Orders, cfg.Events = 1500, 2000, 2500

	p := &recordingProgress{}
	ds, err := New(cfg, NewSource(cfg.Seed), nil, p).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Entities, p.started)
	// the item stage advances per order processed
	assert.Equal(t, 1500+2000+2000+2500, p.rows)
	assert.Equal(t, len(ds.OrderItems), p.finished[domain.EntityOrderItems])
	assert.Equal(t, 2500, p.finished[domain.EntityClickstream])
}
