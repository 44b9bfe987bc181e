package export

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/shopspring/decimal"

	"github.com/fastygo/shopgen/domain"
)

const FormatParquet = "parquet"

var (
	moneyType     = &arrow.Decimal128Type{Precision: 12, Scale: 2}
	timestampType = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}

	customerSchema = arrow.NewSchema([]arrow.Field{
		{Name: "email", Type: arrow.BinaryTypes.String},
		{Name: "first_name", Type: arrow.BinaryTypes.String},
		{Name: "last_name", Type: arrow.BinaryTypes.String},
		{Name: "phone", Type: arrow.BinaryTypes.String},
		{Name: "registration_date", Type: arrow.FixedWidthTypes.Date32},
		{Name: "customer_segment", Type: arrow.BinaryTypes.String},
		{Name: "segment_start_date", Type: arrow.FixedWidthTypes.Date32},
		{Name: "segment_end_date", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
		{Name: "is_current", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)

	orderSchema = arrow.NewSchema([]arrow.Field{
		{Name: "order_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "customer_id", Type: arrow.BinaryTypes.String},
		{Name: "order_date", Type: timestampType},
		{Name: "order_total", Type: moneyType},
		{Name: "payment_method", Type: arrow.BinaryTypes.String},
		{Name: "shipping_address", Type: arrow.BinaryTypes.String},
		{Name: "order_status", Type: arrow.BinaryTypes.String},
	}, nil)

	orderItemSchema = arrow.NewSchema([]arrow.Field{
		{Name: "order_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "product_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "quantity", Type: arrow.PrimitiveTypes.Int64},
		{Name: "unit_price", Type: moneyType},
		{Name: "discount_amount", Type: moneyType},
	}, nil)

	eventSchema = arrow.NewSchema([]arrow.Field{
		{Name: "event_id", Type: arrow.BinaryTypes.String},
		{Name: "session_id", Type: arrow.BinaryTypes.String},
		{Name: "user_id", Type: arrow.BinaryTypes.String},
		{Name: "event_timestamp", Type: timestampType},
		{Name: "event_type", Type: arrow.BinaryTypes.String},
		{Name: "product_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "page_url", Type: arrow.BinaryTypes.String},
		{Name: "device_type", Type: arrow.BinaryTypes.String},
		{Name: "browser", Type: arrow.BinaryTypes.String},
	}, nil)
)

// ParquetOptions controls the lake export.
type ParquetOptions struct {
	// Compression is one of snappy, gzip, zstd or uncompressed.
	Compression string
	// Partitioned splits orders and events into year=/month=/day= directories.
	Partitioned bool
}

// DefaultParquetOptions returns snappy compression without partitioning.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy"}
}

// ParquetWriter writes Parquet files under dir.
type ParquetWriter struct {
	dir     string
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetWriter creates a writer rooted at dir.
func NewParquetWriter(dir string, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		dir:     dir,
		options: options,
		mem:     memory.NewGoAllocator(),
	}
}

// Write emits customers and order items as single files, and orders and clickstream events
// either as single files or one file per day partition.
func (w *ParquetWriter) Write(ctx context.Context, ds *domain.Dataset) ([]File, error) {
	var files []File

	f, err := writeTable(w, filepath.Join(w.dir, domain.EntityCustomers+".parquet"),
		domain.EntityCustomers, customerSchema, ds.Customers, appendCustomer)
	if err != nil {
		return files, err
	}
	files = append(files, f)

	if err := ctx.Err(); err != nil {
		return files, err
	}
	written, err := writePartitioned(w, domain.EntityOrders, orderSchema, ds.Orders,
		func(o domain.Order) time.Time { return o.OrderDate }, appendOrder)
	files = append(files, written...)
	if err != nil {
		return files, err
	}

	if err := ctx.Err(); err != nil {
		return files, err
	}
	f, err = writeTable(w, filepath.Join(w.dir, domain.EntityOrderItems+".parquet"),
		domain.EntityOrderItems, orderItemSchema, ds.OrderItems, appendOrderItem)
	if err != nil {
		return files, err
	}
	files = append(files, f)

	if err := ctx.Err(); err != nil {
		return files, err
	}
	written, err = writePartitioned(w, domain.EntityClickstream, eventSchema, ds.Events,
		func(e domain.ClickstreamEvent) time.Time { return e.Timestamp }, appendEvent)
	files = append(files, written...)
	return files, err
}

// PartitionDir is the Hive-style directory for the given day.
func PartitionDir(root, entity string, day time.Time) string {
	return filepath.Join(root, entity,
		fmt.Sprintf("year=%04d", day.Year()),
		fmt.Sprintf("month=%02d", int(day.Month())),
		fmt.Sprintf("day=%02d", day.Day()))
}

func writePartitioned[T any](
	w *ParquetWriter,
	entity string,
	schema *arrow.Schema,
	rows []T,
	ts func(T) time.Time,
	appendRow func(*array.RecordBuilder, T),
) ([]File, error) {
	if !w.options.Partitioned {
		f, err := writeTable(w, filepath.Join(w.dir, entity+".parquet"), entity, schema, rows, appendRow)
		if err != nil {
			return nil, err
		}
		return []File{f}, nil
	}

	days, groups := groupByDay(rows, ts)
	files := make([]File, 0, len(days))
	for _, day := range days {
		path := filepath.Join(PartitionDir(w.dir, entity, day), entity+".parquet")
		f, err := writeTable(w, path, entity, schema, groups[day], appendRow)
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

// groupByDay buckets rows by UTC day, keeping days in first-seen order.
func groupByDay[T any](rows []T, ts func(T) time.Time) ([]time.Time, map[time.Time][]T) {
	var days []time.Time
	groups := make(map[time.Time][]T)
	for _, r := range rows {
		t := ts(r).UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := groups[day]; !ok {
			days = append(days, day)
		}
		groups[day] = append(groups[day], r)
	}
	return days, groups
}

func writeTable[T any](
	w *ParquetWriter,
	path, entity string,
	schema *arrow.Schema,
	rows []T,
	appendRow func(*array.RecordBuilder, T),
) (File, error) {
	b := array.NewRecordBuilder(w.mem, schema)
	defer b.Release()
	for _, r := range rows {
		appendRow(b, r)
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(w.compression()))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(w.mem))

	sum, err := writeAtomic(path, func(out io.Writer) error {
		fw, err := pqarrow.NewFileWriter(schema, out, props, arrowProps)
		if err != nil {
			return fmt.Errorf("creating parquet writer: %w", err)
		}
		if err := fw.Write(rec); err != nil {
			_ = fw.Close()
			return fmt.Errorf("writing record: %w", err)
		}
		return fw.Close()
	})
	if err != nil {
		return File{}, err
	}
	return File{Entity: entity, Format: FormatParquet, Path: path, Rows: len(rows), Checksum: sum}, nil
}

func (w *ParquetWriter) compression() compress.Compression {
	switch w.options.Compression {
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

func appendCustomer(b *array.RecordBuilder, c domain.Customer) {
	b.Field(0).(*array.StringBuilder).Append(c.Email)
	b.Field(1).(*array.StringBuilder).Append(c.FirstName)
	b.Field(2).(*array.StringBuilder).Append(c.LastName)
	b.Field(3).(*array.StringBuilder).Append(c.Phone)
	b.Field(4).(*array.Date32Builder).Append(arrow.Date32FromTime(c.RegistrationDate))
	b.Field(5).(*array.StringBuilder).Append(string(c.Segment))
	b.Field(6).(*array.Date32Builder).Append(arrow.Date32FromTime(c.SegmentStartDate))
	if c.SegmentEndDate != nil {
		b.Field(7).(*array.Date32Builder).Append(arrow.Date32FromTime(*c.SegmentEndDate))
	} else {
		b.Field(7).(*array.Date32Builder).AppendNull()
	}
	b.Field(8).(*array.BooleanBuilder).Append(c.IsCurrent)
}

func appendOrder(b *array.RecordBuilder, o domain.Order) {
	b.Field(0).(*array.Int64Builder).Append(int64(o.ID))
	b.Field(1).(*array.StringBuilder).Append(o.CustomerEmail)
	b.Field(2).(*array.TimestampBuilder).Append(arrow.Timestamp(o.OrderDate.Unix()))
	b.Field(3).(*array.Decimal128Builder).Append(toDecimal128(o.Total))
	b.Field(4).(*array.StringBuilder).Append(o.PaymentMethod)
	b.Field(5).(*array.StringBuilder).Append(o.ShippingAddress)
	b.Field(6).(*array.StringBuilder).Append(o.Status)
}

func appendOrderItem(b *array.RecordBuilder, it domain.OrderItem) {
	b.Field(0).(*array.Int64Builder).Append(int64(it.OrderID))
	b.Field(1).(*array.Int64Builder).Append(int64(it.ProductID))
	b.Field(2).(*array.Int64Builder).Append(int64(it.Quantity))
	b.Field(3).(*array.Decimal128Builder).Append(toDecimal128(it.UnitPrice))
	b.Field(4).(*array.Decimal128Builder).Append(toDecimal128(it.DiscountAmount))
}

func appendEvent(b *array.RecordBuilder, e domain.ClickstreamEvent) {
	b.Field(0).(*array.StringBuilder).Append(e.EventID)
	b.Field(1).(*array.StringBuilder).Append(e.SessionID)
	b.Field(2).(*array.StringBuilder).Append(e.UserEmail)
	b.Field(3).(*array.TimestampBuilder).Append(arrow.Timestamp(e.Timestamp.Unix()))
	b.Field(4).(*array.StringBuilder).Append(e.Type)
	b.Field(5).(*array.Int64Builder).Append(int64(e.ProductID))
	b.Field(6).(*array.StringBuilder).Append(e.PageURL)
	b.Field(7).(*array.StringBuilder).Append(e.DeviceType)
	b.Field(8).(*array.StringBuilder).Append(e.Browser)
}

// toDecimal128 stores a 2dp amount as its integer number of cents.
func toDecimal128(d decimal.Decimal) decimal128.Num {
	return decimal128.FromI64(d.Shift(2).Round(0).IntPart())
}
