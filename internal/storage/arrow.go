package storage

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"zomato-dashboard/internal/engine"
)

// ArrowContentType is the media type of an Arrow IPC stream.
const ArrowContentType = "application/vnd.apache.arrow.stream"

var orderSchema = arrow.NewSchema([]arrow.Field{
	{Name: engine.ColName, Type: arrow.BinaryTypes.String},
	{Name: engine.ColOnlineOrder, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: engine.ColBookTable, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: engine.ColRating, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: engine.ColVotes, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: engine.ColCost, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: engine.ColCategory, Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// WriteArrow streams the records as a single Arrow IPC record batch.
// Absent values become nulls.
func WriteArrow(w io.Writer, records []engine.Record) error {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, orderSchema)
	defer b.Release()

	name := b.Field(0).(*array.StringBuilder)
	mode := b.Field(1).(*array.StringBuilder)
	booking := b.Field(2).(*array.StringBuilder)
	rating := b.Field(3).(*array.Float64Builder)
	votes := b.Field(4).(*array.Int64Builder)
	cost := b.Field(5).(*array.Float64Builder)
	category := b.Field(6).(*array.StringBuilder)

	for _, r := range records {
		name.Append(r.Name)
		appendString(mode, r.OnlineOrder)
		appendString(booking, r.BookTable)
		appendFloat(rating, r.Rating)
		if r.Votes == engine.MissingVotes {
			votes.AppendNull()
		} else {
			votes.Append(r.Votes)
		}
		appendFloat(cost, r.Cost)
		appendString(category, r.Category)
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(orderSchema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return fmt.Errorf("arrow: write: %w", err)
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("arrow: close: %w", err)
	}
	return nil
}

// ReadArrow decodes a stream written by WriteArrow.
func ReadArrow(r io.Reader) ([]engine.Record, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("arrow: open: %w", err)
	}
	defer rdr.Release()

	if !rdr.Schema().Equal(orderSchema) {
		return nil, fmt.Errorf("arrow: unexpected schema %s", rdr.Schema())
	}

	var out []engine.Record
	for rdr.Next() {
		rec := rdr.Record()
		name := rec.Column(0).(*array.String)
		mode := rec.Column(1).(*array.String)
		booking := rec.Column(2).(*array.String)
		rating := rec.Column(3).(*array.Float64)
		votes := rec.Column(4).(*array.Int64)
		cost := rec.Column(5).(*array.Float64)
		category := rec.Column(6).(*array.String)

		for i := 0; i < int(rec.NumRows()); i++ {
			r := engine.Record{
				Name:        name.Value(i),
				OnlineOrder: stringAt(mode, i),
				BookTable:   stringAt(booking, i),
				Category:    stringAt(category, i),
				Rating:      floatAt(rating, i),
				Cost:        floatAt(cost, i),
				Votes:       engine.MissingVotes,
			}
			if votes.IsValid(i) {
				r.Votes = votes.Value(i)
			}
			out = append(out, r)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("arrow: read: %w", err)
	}
	return out, nil
}

func appendString(b *array.StringBuilder, s string) {
	if s == "" {
		b.AppendNull()
		return
	}
	b.Append(s)
}

func appendFloat(b *array.Float64Builder, v float64) {
	if math.IsNaN(v) {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func stringAt(a *array.String, i int) string {
	if a.IsNull(i) {
		return ""
	}
	return a.Value(i)
}

func floatAt(a *array.Float64, i int) float64 {
	if a.IsNull(i) {
		return math.NaN()
	}
	return a.Value(i)
}
