package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastygo/shopgen/domain"
)

const (
	FormatCSV = "csv"

	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Column headers, in file order.
var (
	CustomerColumns = []string{"email", "first_name", "last_name", "phone", "registration_date",
		"customer_segment", "segment_start_date", "segment_end_date", "is_current"}
	OrderColumns = []string{"customer_id", "order_date", "order_total", "payment_method",
		"shipping_address", "order_status"}
	OrderItemColumns = []string{"order_id", "product_id", "quantity", "unit_price", "discount_amount"}
	EventColumns     = []string{"event_id", "session_id", "user_id", "event_timestamp", "event_type",
		"product_id", "page_url", "device_type", "browser"}
)

// CSVPath is where an entity's CSV lives under dir.
func CSVPath(dir, entity string) string {
	return filepath.Join(dir, entity+".csv")
}

// CSVWriter writes one CSV file per entity into a directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write emits the four files in generation order. Empty datasets produce header-only files.
func (w *CSVWriter) Write(ctx context.Context, ds *domain.Dataset) ([]File, error) {
	tables := []struct {
		entity  string
		header  []string
		rows    int
		records func(emit func([]string) error) error
	}{
		{domain.EntityCustomers, CustomerColumns, len(ds.Customers), func(emit func([]string) error) error {
			for _, c := range ds.Customers {
				if err := emit(customerRecord(c)); err != nil {
					return err
				}
			}
			return nil
		}},
		{domain.EntityOrders, OrderColumns, len(ds.Orders), func(emit func([]string) error) error {
			for _, o := range ds.Orders {
				if err := emit(orderRecord(o)); err != nil {
					return err
				}
			}
			return nil
		}},
		{domain.EntityOrderItems, OrderItemColumns, len(ds.OrderItems), func(emit func([]string) error) error {
			for _, it := range ds.OrderItems {
				if err := emit(orderItemRecord(it)); err != nil {
					return err
				}
			}
			return nil
		}},
		{domain.EntityClickstream, EventColumns, len(ds.Events), func(emit func([]string) error) error {
			for _, e := range ds.Events {
				if err := emit(eventRecord(e)); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	files := make([]File, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		path := CSVPath(w.dir, t.entity)
		sum, err := writeAtomic(path, func(out io.Writer) error {
			cw := csv.NewWriter(out)
			if err := cw.Write(t.header); err != nil {
				return err
			}
			if err := t.records(cw.Write); err != nil {
				return err
			}
			cw.Flush()
			return cw.Error()
		})
		if err != nil {
			return files, err
		}
		files = append(files, File{Entity: t.entity, Format: FormatCSV, Path: path, Rows: t.rows, Checksum: sum})
	}
	return files, nil
}

func customerRecord(c domain.Customer) []string {
	end := ""
	if c.SegmentEndDate != nil {
		end = c.SegmentEndDate.Format(DateLayout)
	}
	return []string{
		c.Email,
		c.FirstName,
		c.LastName,
		c.Phone,
		c.RegistrationDate.Format(DateLayout),
		string(c.Segment),
		c.SegmentStartDate.Format(DateLayout),
		end,
		strconv.FormatBool(c.IsCurrent),
	}
}

func orderRecord(o domain.Order) []string {
	return []string{
		o.CustomerEmail,
		o.OrderDate.Format(TimestampLayout),
		o.Total.StringFixed(2),
		o.PaymentMethod,
		o.ShippingAddress,
		o.Status,
	}
}

func orderItemRecord(it domain.OrderItem) []string {
	return []string{
		strconv.Itoa(it.OrderID),
		strconv.Itoa(it.ProductID),
		strconv.Itoa(it.Quantity),
		it.UnitPrice.StringFixed(2),
		it.DiscountAmount.StringFixed(2),
	}
}

func eventRecord(e domain.ClickstreamEvent) []string {
	return []string{
		e.EventID,
		e.SessionID,
		e.UserEmail,
		e.Timestamp.Format(TimestampLayout),
		e.Type,
		strconv.Itoa(e.ProductID),
		e.PageURL,
		e.DeviceType,
		e.Browser,
	}
}

// ReadCSVDataset loads the four CSV files from dir. Orders are numbered by file position,
// matching the ids the generator assigned.
func ReadCSVDataset(dir string) (*domain.Dataset, error) {
	ds := &domain.Dataset{}

	if err := readCSV(CSVPath(dir, domain.EntityCustomers), CustomerColumns, func(rec []string) error {
		c, err := parseCustomer(rec)
		if err == nil {
			ds.Customers = append(ds.Customers, c)
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := readCSV(CSVPath(dir, domain.EntityOrders), OrderColumns, func(rec []string) error {
		o, err := parseOrder(rec)
		if err == nil {
			o.ID = len(ds.Orders) + 1
			ds.Orders = append(ds.Orders, o)
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := readCSV(CSVPath(dir, domain.EntityOrderItems), OrderItemColumns, func(rec []string) error {
		it, err := parseOrderItem(rec)
		if err == nil {
			ds.OrderItems = append(ds.OrderItems, it)
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := readCSV(CSVPath(dir, domain.EntityClickstream), EventColumns, func(rec []string) error {
		e, err := parseEvent(rec)
		if err == nil {
			ds.Events = append(ds.Events, e)
		}
		return err
	}); err != nil {
		return nil, err
	}

	return ds, nil
}

func readCSV(path string, header []string, row func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, path)
		}
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err != nil {
		return domain.Invalidf("%s: read header: %v", path, err)
	}
	for i := range header {
		if got[i] != header[i] {
			return domain.Invalidf("%s: column %d is %q, want %q", path, i+1, got[i], header[i])
		}
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return domain.Invalidf("%s: %v", path, err)
		}
		if err := row(rec); err != nil {
			return domain.Invalidf("%s line %d: %v", path, line, err)
		}
	}
}

func parseCustomer(rec []string) (domain.Customer, error) {
	registered, err := time.Parse(DateLayout, rec[4])
	if err != nil {
		return domain.Customer{}, fmt.Errorf("registration_date: %w", err)
	}
	segmentStart, err := time.Parse(DateLayout, rec[6])
	if err != nil {
		return domain.Customer{}, fmt.Errorf("segment_start_date: %w", err)
	}
	var segmentEnd *time.Time
	if rec[7] != "" {
		end, err := time.Parse(DateLayout, rec[7])
		if err != nil {
			return domain.Customer{}, fmt.Errorf("segment_end_date: %w", err)
		}
		segmentEnd = &end
	}
	current, err := strconv.ParseBool(rec[8])
	if err != nil {
		return domain.Customer{}, fmt.Errorf("is_current: %w", err)
	}
	segment := domain.Segment(rec[5])
	if !segment.Valid() {
		return domain.Customer{}, fmt.Errorf("unknown segment %q", rec[5])
	}
	return domain.Customer{
		Email:            rec[0],
		FirstName:        rec[1],
		LastName:         rec[2],
		Phone:            rec[3],
		RegistrationDate: registered,
		Segment:          segment,
		SegmentStartDate: segmentStart,
		SegmentEndDate:   segmentEnd,
		IsCurrent:        current,
	}, nil
}

func parseOrder(rec []string) (domain.Order, error) {
	orderDate, err := time.Parse(TimestampLayout, rec[1])
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_date: %w", err)
	}
	total, err := decimal.NewFromString(rec[2])
	if err != nil {
		return domain.Order{}, fmt.Errorf("order_total: %w", err)
	}
	return domain.Order{
		CustomerEmail:   rec[0],
		OrderDate:       orderDate,
		Total:           total,
		PaymentMethod:   rec[3],
		ShippingAddress: rec[4],
		Status:          rec[5],
	}, nil
}

func parseOrderItem(rec []string) (domain.OrderItem, error) {
	var (
		it  domain.OrderItem
		err error
	)
	if it.OrderID, err = strconv.Atoi(rec[0]); err != nil {
		return it, fmt.Errorf("order_id: %w", err)
	}
	if it.ProductID, err = strconv.Atoi(rec[1]); err != nil {
		return it, fmt.Errorf("product_id: %w", err)
	}
	if it.Quantity, err = strconv.Atoi(rec[2]); err != nil {
		return it, fmt.Errorf("quantity: %w", err)
	}
	if it.UnitPrice, err = decimal.NewFromString(rec[3]); err != nil {
		return it, fmt.Errorf("unit_price: %w", err)
	}
	if it.DiscountAmount, err = decimal.NewFromString(rec[4]); err != nil {
		return it, fmt.Errorf("discount_amount: %w", err)
	}
	return it, nil
}

func parseEvent(rec []string) (domain.ClickstreamEvent, error) {
	ts, err := time.Parse(TimestampLayout, rec[3])
	if err != nil {
		return domain.ClickstreamEvent{}, fmt.Errorf("event_timestamp: %w", err)
	}
	product, err := strconv.Atoi(rec[5])
	if err != nil {
		return domain.ClickstreamEvent{}, fmt.Errorf("product_id: %w", err)
	}
	return domain.ClickstreamEvent{
		EventID:    rec[0],
		SessionID:  rec[1],
		UserEmail:  rec[2],
		Timestamp:  ts,
		Type:       rec[4],
		ProductID:  product,
		PageURL:    rec[6],
		DeviceType: rec[7],
		Browser:    rec[8],
	}, nil
}
