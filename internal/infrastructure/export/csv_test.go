package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/shopgen/domain"
)

func fixture() *domain.Dataset {
	registered := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Dataset{
		Customers: []domain.Customer{
			{
				Email:            "ada.lovelace.1@example.com",
				FirstName:        "Ada",
				LastName:         "Lovelace",
				Phone:            "(555) 010-2030",
				RegistrationDate: registered,
				Segment:          domain.SegmentGold,
				SegmentStartDate: registered.AddDate(0, 2, 0),
				IsCurrent:        true,
			},
			{
				Email:            "alan.turing.2@example.org",
				FirstName:        "Alan",
				LastName:         "Turing",
				Phone:            "555-0199",
				RegistrationDate: registered.AddDate(0, 0, 3),
				Segment:          domain.SegmentBronze,
				SegmentStartDate: registered.AddDate(0, 0, 3),
				IsCurrent:        true,
			},
		},
		Orders: []domain.Order{
			{
				ID:              1,
				CustomerEmail:   "ada.lovelace.1@example.com",
				OrderDate:       time.Date(2024, 5, 2, 21, 14, 5, 0, time.UTC),
				Total:           decimal.RequireFromString("100.00"),
				PaymentMethod:   domain.PaymentPayPal,
				ShippingAddress: "12 Analytical Way, London, NY 10001",
				Status:          domain.OrderStatusCompleted,
			},
			{
				ID:              2,
				CustomerEmail:   "alan.turing.2@example.org",
				OrderDate:       time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC),
				Total:           decimal.RequireFromString("20.5"),
				PaymentMethod:   domain.PaymentCreditCard,
				ShippingAddress: "1 Bletchley Rd, Milton, KY 40045",
				Status:          domain.OrderStatusPending,
			},
		},
		OrderItems: []domain.OrderItem{
			{OrderID: 1, ProductID: 17, Quantity: 2, UnitPrice: decimal.RequireFromString("30.00"), DiscountAmount: decimal.RequireFromString("5.00")},
			{OrderID: 1, ProductID: 3, Quantity: 1, UnitPrice: decimal.RequireFromString("45.00"), DiscountAmount: decimal.Zero},
			{OrderID: 2, ProductID: 200, Quantity: 1, UnitPrice: decimal.RequireFromString("20.50"), DiscountAmount: decimal.Zero},
		},
		Events: []domain.ClickstreamEvent{
			{
				EventID:    "1f0c6f3e-0f7a-4b55-9a53-6b0a3f9e2d11",
				SessionID:  "8e1e2f0a-7c43-4d2b-a1d5-2c9e8f7b6a50",
				UserEmail:  "ada.lovelace.1@example.com",
				Timestamp:  time.Date(2024, 5, 1, 20, 0, 1, 0, time.UTC),
				Type:       domain.EventAddToCart,
				ProductID:  17,
				PageURL:    "/engines/difference",
				DeviceType: domain.DeviceDesktop,
				Browser:    "firefox",
			},
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := fixture()

	files, err := NewCSVWriter(dir).Write(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, files, 4)
	for i, entity := range domain.Entities {
		assert.Equal(t, entity, files[i].Entity)
		assert.Equal(t, FormatCSV, files[i].Format)
		assert.Equal(t, CSVPath(dir, entity), files[i].Path)
		sum, err := Checksum(files[i].Path)
		require.NoError(t, err)
		assert.Equal(t, sum, files[i].Checksum)
	}
	assert.Equal(t, 3, files[2].Rows)

	back, err := ReadCSVDataset(dir)
	require.NoError(t, err)

	assert.Equal(t, ds.Customers, back.Customers)
	assert.Equal(t, ds.Events, back.Events)
	require.Len(t, back.Orders, 2)
	for i := range ds.Orders {
		want, got := ds.Orders[i], back.Orders[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.CustomerEmail, got.CustomerEmail)
		assert.True(t, want.OrderDate.Equal(got.OrderDate))
		assert.True(t, want.Total.Equal(got.Total))
		assert.Equal(t, want.ShippingAddress, got.ShippingAddress)
	}
	require.Len(t, back.OrderItems, 3)
	for i := range ds.OrderItems {
		assert.True(t, ds.OrderItems[i].LineTotal().Equal(back.OrderItems[i].LineTotal()))
	}
}

func TestCSVFormatting(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVWriter(dir).Write(context.Background(), fixture())
	require.NoError(t, err)

	orders, err := os.ReadFile(CSVPath(dir, domain.EntityOrders))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(orders)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "customer_id,order_date,order_total,payment_method,shipping_address,order_status", lines[0])
	assert.Equal(t, `ada.lovelace.1@example.com,2024-05-02 21:14:05,100.00,paypal,"12 Analytical Way, London, NY 10001",completed`, lines[1])
	assert.Contains(t, lines[2], ",20.50,")

	customers, err := os.ReadFile(CSVPath(dir, domain.EntityCustomers))
	require.NoError(t, err)
	assert.Contains(t, string(customers), "2024-03-01,gold,2024-05-01,,true")
}

func TestCSVEmptyDatasetWritesHeaders(t *testing.T) {
	dir := t.TempDir()
	files, err := NewCSVWriter(dir).Write(context.Background(), &domain.Dataset{})
	require.NoError(t, err)
	require.Len(t, files, 4)

	raw, err := os.ReadFile(CSVPath(dir, domain.EntityOrderItems))
	require.NoError(t, err)
	assert.Equal(t, "order_id,product_id,quantity,unit_price,discount_amount\n", string(raw))

	back, err := ReadCSVDataset(dir)
	require.NoError(t, err)
	assert.Empty(t, back.Customers)
	assert.Empty(t, back.Events)
}

func TestCSVWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVWriter(dir).Write(context.Background(), fixture())
	require.NoError(t, err)
	_, err = NewCSVWriter(dir).Write(context.Background(), fixture())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"customers.csv", "orders.csv", "order_items.csv", "clickstream_events.csv",
	}, names)
}

func TestCSVWriteStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	files, err := NewCSVWriter(dir).Write(ctx, fixture())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, files)
	_, statErr := os.Stat(CSVPath(dir, domain.EntityCustomers))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCSVWriteFailureIsClassified(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewCSVWriter(filepath.Join(blocker, "out")).Write(context.Background(), fixture())
	require.ErrorIs(t, err, domain.ErrWriteFailed)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestReadCSVDatasetMissingFile(t *testing.T) {
	_, err := ReadCSVDataset(t.TempDir())
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestReadCSVDatasetRejectsWrongHeader(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVWriter(dir).Write(context.Background(), fixture())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(CSVPath(dir, domain.EntityOrders),
		[]byte("customer_email,order_date,order_total,payment_method,shipping_address,order_status\n"), 0o644))

	_, err = ReadCSVDataset(dir)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestReadCSVDatasetRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVWriter(dir).Write(context.Background(), fixture())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(CSVPath(dir, domain.EntityOrderItems),
		[]byte("order_id,product_id,quantity,unit_price,discount_amount\n1,2,three,1.00,0.00\n"), 0o644))

	_, err = ReadCSVDataset(dir)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "line 2")
}
