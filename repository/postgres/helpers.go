package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fastygo/shopgen/domain"
)

var (
	customerCopyColumns = []string{"email", "first_name", "last_name", "phone", "registration_date",
		"customer_segment", "segment_start_date", "segment_end_date", "is_current"}
	orderCopyColumns = []string{"customer_id", "order_date", "order_total", "payment_method",
		"shipping_address", "order_status"}
	orderItemCopyColumns = []string{"order_id", "product_id", "quantity", "unit_price", "discount_amount"}
	eventCopyColumns     = []string{"event_id", "session_id", "user_id", "event_timestamp", "event_type",
		"product_id", "page_url", "device_type", "browser"}
)

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func customerRows(customers []domain.Customer) [][]interface{} {
	rows := make([][]interface{}, len(customers))
	for i, c := range customers {
		rows[i] = []interface{}{
			c.Email,
			c.FirstName,
			c.LastName,
			c.Phone,
			c.RegistrationDate,
			string(c.Segment),
			c.SegmentStartDate,
			nullDate(c.SegmentEndDate),
			c.IsCurrent,
		}
	}
	return rows
}

// orderRows keeps file order so the identity column assigns the same ids the generator did.
// Every order must resolve to a loaded customer; skipping one would shift all later ids.
func orderRows(orders []domain.Order, customerIDs map[string]int32) ([][]interface{}, error) {
	rows := make([][]interface{}, len(orders))
	for i, o := range orders {
		id, ok := customerIDs[o.CustomerEmail]
		if !ok {
			return nil, fmt.Errorf("%w: order %d references %s", domain.ErrUnknownCustomer, i+1, o.CustomerEmail)
		}
		rows[i] = []interface{}{
			id,
			o.OrderDate,
			numeric(o.Total),
			o.PaymentMethod,
			o.ShippingAddress,
			o.Status,
		}
	}
	return rows, nil
}

func orderItemRows(items []domain.OrderItem) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, it := range items {
		rows[i] = []interface{}{
			int32(it.OrderID),
			int32(it.ProductID),
			int32(it.Quantity),
			numeric(it.UnitPrice),
			numeric(it.DiscountAmount),
		}
	}
	return rows
}

func eventRows(events []domain.ClickstreamEvent) [][]interface{} {
	rows := make([][]interface{}, len(events))
	for i, e := range events {
		rows[i] = []interface{}{
			e.EventID,
			e.SessionID,
			e.UserEmail,
			e.Timestamp,
			e.Type,
			int32(e.ProductID),
			e.PageURL,
			e.DeviceType,
			e.Browser,
		}
	}
	return rows
}
