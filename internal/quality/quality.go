// Package quality verifies the invariants a generated dataset promises: unique keys,
// referential integrity, positive amounts, order totals reconstructed by their items and
// chronological output.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
)

// Severity tells whether a failed check should fail the run.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// ConservationTolerancePerItem bounds |order_total − Σ line_total| per line item.
var ConservationTolerancePerItem = decimal.RequireFromString("0.05")

// Result is the outcome of one named check.
type Result struct {
	Name       string   `json:"name"`
	Severity   Severity `json:"severity"`
	Passed     bool     `json:"passed"`
	Violations int      `json:"violations"`
	Detail     string   `json:"detail"`
}

// Report collects check results in execution order.
type Report struct {
	Results []Result `json:"results"`
}

// Passed reports whether every error-severity check passed.
func (r Report) Passed() bool {
	return len(r.Failed()) == 0
}

// Failed returns the error-severity checks that did not pass.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Severity == SeverityError && !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Get returns the result with the given name.
func (r Report) Get(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Options carries the generation parameters some checks compare against. Zero values skip
// the corresponding check.
type Options struct {
	OrderStart    time.Time
	OrderEnd      time.Time
	Products      int
	FrequentShare float64
}

// Check names.
const (
	CheckUniqueEmails       = "unique_customer_emails"
	CheckUniqueEventIDs     = "unique_event_ids"
	CheckCurrentSegment     = "single_current_segment"
	CheckPositiveTotals     = "positive_order_totals"
	CheckOrderWindow        = "order_dates_in_window"
	CheckOrdersSorted       = "orders_chronological"
	CheckEventsSorted       = "events_chronological"
	CheckItemValues         = "order_item_values"
	CheckItemsPerOrder      = "items_per_order"
	CheckItemOrderRefs      = "order_item_order_refs"
	CheckOrderCustomerRefs  = "order_customer_refs"
	CheckEventCustomerRefs  = "event_customer_refs"
	CheckProductRefs        = "product_refs"
	CheckTotalsConservation = "order_total_conservation"
	CheckFrequentSkew       = "frequent_customer_skew"
)

type checker struct {
	results []Result
}

func (c *checker) add(name string, violations int, examples []string) {
	res := Result{Name: name, Severity: SeverityError, Passed: violations == 0, Violations: violations}
	if violations == 0 {
		res.Detail = "ok"
	} else {
		res.Detail = fmt.Sprintf("%d violations, e.g. %s", violations, strings.Join(examples, "; "))
	}
	c.results = append(c.results, res)
}

func (c *checker) info(name, detail string) {
	c.results = append(c.results, Result{Name: name, Severity: SeverityInfo, Passed: true, Detail: detail})
}

// violations counts failures and keeps the first few descriptions.
type violations struct {
	n        int
	examples []string
}

func (v *violations) add(format string, args ...any) {
	v.n++
	if len(v.examples) < 3 {
		v.examples = append(v.examples, fmt.Sprintf(format, args...))
	}
}

// Check runs every check against ds.
func Check(ds *domain.Dataset, opts Options) Report {
	c := &checker{}

	emails := make(map[string]struct{}, len(ds.Customers))
	var dupEmails, segments violations
	for _, cust := range ds.Customers {
		if _, ok := emails[cust.Email]; ok {
			dupEmails.add("%s", cust.Email)
		}
		emails[cust.Email] = struct{}{}
		if !cust.IsCurrentSegment() || !cust.Segment.Valid() || cust.SegmentStartDate.Before(cust.RegistrationDate) {
			segments.add("%s", cust.Email)
		}
	}
	c.add(CheckUniqueEmails, dupEmails.n, dupEmails.examples)
	c.add(CheckCurrentSegment, segments.n, segments.examples)

	ids := make(map[string]struct{}, len(ds.Events))
	var dupIDs, eventRefs, eventOrder violations
	for i, e := range ds.Events {
		if _, ok := ids[e.EventID]; ok {
			dupIDs.add("%s", e.EventID)
		}
		ids[e.EventID] = struct{}{}
		if _, ok := emails[e.UserEmail]; !ok {
			eventRefs.add("%s -> %s", e.EventID, e.UserEmail)
		}
		if i > 0 && e.Timestamp.Before(ds.Events[i-1].Timestamp) {
			eventOrder.add("row %d", i+1)
		}
	}
	c.add(CheckUniqueEventIDs, dupIDs.n, dupIDs.examples)

	var totals, window, orderOrder, orderRefs violations
	for i, o := range ds.Orders {
		if !o.Total.IsPositive() {
			totals.add("order %d total %s", o.ID, o.Total.StringFixed(2))
		}
		if !opts.OrderStart.IsZero() && o.OrderDate.Before(opts.OrderStart) {
			window.add("order %d at %s", o.ID, o.OrderDate.Format(time.DateTime))
		}
		if !opts.OrderEnd.IsZero() && !o.OrderDate.Before(opts.OrderEnd.AddDate(0, 0, 1)) {
			window.add("order %d at %s", o.ID, o.OrderDate.Format(time.DateTime))
		}
		if i > 0 && o.OrderDate.Before(ds.Orders[i-1].OrderDate) {
			orderOrder.add("order %d", o.ID)
		}
		if _, ok := emails[o.CustomerEmail]; !ok {
			orderRefs.add("order %d -> %s", o.ID, o.CustomerEmail)
		}
	}
	c.add(CheckPositiveTotals, totals.n, totals.examples)
	c.add(CheckOrderWindow, window.n, window.examples)
	c.add(CheckOrdersSorted, orderOrder.n, orderOrder.examples)
	c.add(CheckEventsSorted, eventOrder.n, eventOrder.examples)

	orderIDs := make(map[int]domain.Order, len(ds.Orders))
	for _, o := range ds.Orders {
		orderIDs[o.ID] = o
	}
	var values, itemRefs, products violations
	for _, it := range ds.OrderItems {
		if it.Quantity < 1 || !it.UnitPrice.IsPositive() || it.DiscountAmount.IsNegative() || it.LineTotal().IsNegative() {
			values.add("order %d product %d qty %d unit %s discount %s",
				it.OrderID, it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2), it.DiscountAmount.StringFixed(2))
		}
		if _, ok := orderIDs[it.OrderID]; !ok {
			itemRefs.add("order %d", it.OrderID)
		}
		if opts.Products > 0 && (it.ProductID < 1 || it.ProductID > opts.Products) {
			products.add("order item product %d", it.ProductID)
		}
	}
	for _, e := range ds.Events {
		if opts.Products > 0 && (e.ProductID < 1 || e.ProductID > opts.Products) {
			products.add("event %s product %d", e.EventID, e.ProductID)
		}
	}
	c.add(CheckItemValues, values.n, values.examples)
	c.add(CheckItemOrderRefs, itemRefs.n, itemRefs.examples)
	c.add(CheckOrderCustomerRefs, orderRefs.n, orderRefs.examples)
	c.add(CheckEventCustomerRefs, eventRefs.n, eventRefs.examples)
	if opts.Products > 0 {
		c.add(CheckProductRefs, products.n, products.examples)
	}

	byOrder := ds.ItemsByOrder()
	var perOrder, conservation violations
	for _, o := range ds.Orders {
		items := byOrder[o.ID]
		if len(items) < 1 || len(items) > 5 {
			perOrder.add("order %d has %d items", o.ID, len(items))
			continue
		}
		if diff := ConservationGap(o, items); diff.GreaterThanOrEqual(Tolerance(len(items))) {
			conservation.add("order %d total %s off by %s", o.ID, o.Total.StringFixed(2), diff.StringFixed(2))
		}
	}
	c.add(CheckItemsPerOrder, perOrder.n, perOrder.examples)
	c.add(CheckTotalsConservation, conservation.n, conservation.examples)

	if opts.FrequentShare > 0 && len(ds.Customers) > 0 && len(ds.Orders) > 0 {
		c.info(CheckFrequentSkew, fmt.Sprintf("top %.0f%% of customers placed %.1f%% of orders",
			opts.FrequentShare*100, TopCustomerShare(ds, opts.FrequentShare)*100))
	}

	return Report{Results: c.results}
}

// ConservationGap is |order total − Σ line totals|.
func ConservationGap(o domain.Order, items []domain.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return o.Total.Sub(sum).Abs()
}

// Tolerance is the accepted conservation gap for an order with n items.
func Tolerance(n int) decimal.Decimal {
	return ConservationTolerancePerItem.Mul(decimal.NewFromInt(int64(n)))
}

// TopCustomerShare returns the fraction of orders placed by the busiest share of customers.
func TopCustomerShare(ds *domain.Dataset, share float64) float64 {
	if len(ds.Orders) == 0 || len(ds.Customers) == 0 {
		return 0
	}
	perCustomer := make(map[string]int, len(ds.Customers))
	for _, o := range ds.Orders {
		perCustomer[o.CustomerEmail]++
	}
	counts := make([]int, 0, len(ds.Customers))
	for _, cust := range ds.Customers {
		counts = append(counts, perCustomer[cust.Email])
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	k := int(math.Ceil(float64(len(counts)) * share))
	top := 0
	for _, n := range counts[:k] {
		top += n
	}
	return float64(top) / float64(len(ds.Orders))
}

// OptionsFor derives check options from the generator settings.
func OptionsFor(cfg config.GeneratorConfig) Options {
	start, end := cfg.OrderWindow()
	return Options{
		OrderStart:    start,
		OrderEnd:      end,
		Products:      cfg.Products,
		FrequentShare: cfg.FrequentShare,
	}
}
