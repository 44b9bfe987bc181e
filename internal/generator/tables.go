package generator

import "github.com/fastygo/shopgen/domain"

var segmentChoice = MustWeighted(
	[]domain.Segment{domain.SegmentBronze, domain.SegmentSilver, domain.SegmentGold, domain.SegmentPlatinum},
	[]float64{0.50, 0.30, 0.15, 0.05},
)

var paymentChoice = MustWeighted(
	[]string{domain.PaymentCreditCard, domain.PaymentDebitCard, domain.PaymentPayPal, domain.PaymentApplePay, domain.PaymentGooglePay},
	[]float64{0.40, 0.25, 0.20, 0.10, 0.05},
)

var statusChoice = MustWeighted(
	[]string{domain.OrderStatusCompleted, domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusCancelled, domain.OrderStatusReturned},
	[]float64{0.75, 0.10, 0.08, 0.05, 0.02},
)

// shoppingHours has a late-morning and an evening peak.
var shoppingHours = HourProfile(map[int]float64{
	9: 2, 10: 3, 11: 4, 12: 5,
	13: 4, 14: 3,
	19: 4, 20: 5, 21: 6, 22: 4,
})

// browsingHours leans further into the evening than shopping.
var browsingHours = HourProfile(map[int]float64{
	8: 2, 9: 3, 10: 3, 11: 4, 12: 5,
	13: 4, 14: 3, 15: 3,
	19: 5, 20: 6, 21: 7, 22: 6, 23: 4,
})

var itemCountChoice = MustWeighted(
	[]int{1, 2, 3, 4, 5},
	[]float64{0.40, 0.35, 0.15, 0.07, 0.03},
)

var quantityChoice = MustWeighted(
	[]int{1, 2, 3, 4, 5},
	[]float64{0.60, 0.25, 0.10, 0.03, 0.02},
)

var eventTypeChoice = MustWeighted(
	[]string{domain.EventPageView, domain.EventAddToCart, domain.EventRemoveFromCart, domain.EventPurchase, domain.EventSearch},
	[]float64{0.60, 0.15, 0.05, 0.08, 0.12},
)

var deviceChoice = MustWeighted(
	[]string{domain.DeviceMobile, domain.DeviceDesktop, domain.DeviceTablet},
	[]float64{0.65, 0.30, 0.05},
)

var browserChoice = MustWeighted(
	[]string{"chrome", "safari", "firefox", "edge"},
	[]float64{0.50, 0.30, 0.15, 0.05},
)

type priceRange struct {
	lo, hi float64
}

// orderTotalRanges widen and rise with the segment.
var orderTotalRanges = map[domain.Segment]priceRange{
	domain.SegmentPlatinum: {150, 800},
	domain.SegmentGold:     {80, 400},
	domain.SegmentSilver:   {40, 200},
	domain.SegmentBronze:   {20, 150},
}

const (
	segmentChangeRate = 0.30
	phoneMaxLen       = 20

	itemPriceFloor   = 5.0
	itemPriceCap     = 200.0
	discountRate     = 0.20
	maxDiscountShare = 0.30
	minDiscount      = 1.0
)
