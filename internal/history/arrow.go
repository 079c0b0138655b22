package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// tickColumns is the column order of exported tick tables.
var tickColumns = []string{"run_id", "tick", "moved", "claimed", "stayed", "idle", "trail", "pheromone", "found"}

// TickSchema is the Arrow schema of exported tick tables. Every column is
// a non-null int64.
var TickSchema = func() *arrow.Schema {
	fields := make([]arrow.Field, len(tickColumns))
	for i, name := range tickColumns {
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64}
	}
	return arrow.NewSchema(fields, nil)
}()

func (t TickStats) columns() []int64 {
	return []int64{t.RunID, int64(t.Tick), int64(t.Moved), int64(t.Claimed), int64(t.Stayed),
		int64(t.Idle), int64(t.Trail), int64(t.Pheromone), int64(t.Found)}
}

func tickFromColumns(v []int64) TickStats {
	return TickStats{
		RunID: v[0], Tick: int(v[1]), Moved: int(v[2]), Claimed: int(v[3]), Stayed: int(v[4]),
		Idle: int(v[5]), Trail: int(v[6]), Pheromone: int(v[7]), Found: int(v[8]),
	}
}

// WriteArrow writes ticks to w as a single-batch Arrow IPC stream.
func WriteArrow(w io.Writer, ticks []TickStats) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, TickSchema)
	defer b.Release()

	for _, t := range ticks {
		for i, v := range t.columns() {
			b.Field(i).(*array.Int64Builder).Append(v)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(TickSchema), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}

// ReadArrow reads every batch of an Arrow IPC stream written by WriteArrow.
func ReadArrow(r io.Reader) ([]TickStats, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening arrow stream: %w", err)
	}
	defer reader.Release()

	if !reader.Schema().Equal(TickSchema) {
		return nil, fmt.Errorf("unexpected arrow schema: %s", reader.Schema())
	}

	var out []TickStats
	row := make([]int64, len(tickColumns))
	for reader.Next() {
		rec := reader.Record()
		cols := make([]*array.Int64, rec.NumCols())
		for i := range cols {
			col, ok := rec.Column(i).(*array.Int64)
			if !ok {
				return nil, errors.New("arrow column " + tickColumns[i] + " is not int64")
			}
			cols[i] = col
		}
		for j := 0; j < int(rec.NumRows()); j++ {
			for i, col := range cols {
				row[i] = col.Value(j)
			}
			out = append(out, tickFromColumns(row))
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("reading arrow stream: %w", err)
	}
	return out, nil
}
