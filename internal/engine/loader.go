package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"go.uber.org/zap"
)

// Header names of the input file.
const (
	ColName        = "name"
	ColOnlineOrder = "online_order"
	ColBookTable   = "book_table"
	ColRating      = "rate"
	ColVotes       = "votes"
	ColCost        = "approx_cost(for two people)"
	ColCategory    = "listed_in(type)"
)

var requiredColumns = []string{ColRating, ColCategory, ColCost, ColOnlineOrder, ColVotes, ColBookTable}

var (
	ErrMissingColumn  = errors.New("missing required column")
	ErrMalformedInput = errors.New("malformed input")
)

// maxSampledErrors bounds LoadReport.RatingErrors.
const maxSampledErrors = 20

type LoadOptions struct {
	RatingPolicy RatingPolicy
	Logger       *zap.Logger
}

// LoadReport summarises what the loader did with the input.
type LoadReport struct {
	Rows             int
	Dropped          int
	RatingErrorCount int
	RatingErrors     []*ParseError
}

// LoadColumnar reads the CSV file at path into a ColumnStore.
func LoadColumnar(path string, opts LoadOptions) (*ColumnStore, *LoadReport, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	size := "unknown"
	if fi, err := f.Stat(); err == nil {
		size = bytes.Format(fi.Size())
	}
	log.Info("loading dataset", zap.String("path", path), zap.String("size", size))

	return ReadColumnar(f, opts)
}

// ReadColumnar parses CSV from r. Rating cells go through NormalizeRating
// exactly once; any other malformed cell aborts the load.
func ReadColumnar(r io.Reader, opts LoadOptions) (*ColumnStore, *LoadReport, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := opts.RatingPolicy
	if policy == "" {
		policy = RatingAbsent
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedInput)
		}
		return nil, nil, fmt.Errorf("%w: header: %v", ErrMalformedInput, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	nameIdx, hasName := idx[ColName]

	report := &LoadReport{}
	b := NewBuilder(1024)

	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}

		rec := Record{
			OnlineOrder: strings.TrimSpace(fields[idx[ColOnlineOrder]]),
			BookTable:   strings.TrimSpace(fields[idx[ColBookTable]]),
			Category:    strings.TrimSpace(fields[idx[ColCategory]]),
			Rating:      math.NaN(),
		}
		if hasName {
			rec.Name = strings.TrimSpace(fields[nameIdx])
		}

		if rec.Cost, err = parseCost(fields[idx[ColCost]]); err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: column %q: %v", ErrMalformedInput, row, ColCost, err)
		}
		if rec.Votes, err = parseVotes(fields[idx[ColVotes]]); err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: column %q: %v", ErrMalformedInput, row, ColVotes, err)
		}

		v, ok, err := NormalizeRating(fields[idx[ColRating]])
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Row = row
			}
			if policy == RatingStrict {
				return nil, nil, err
			}
			report.RatingErrorCount++
			if len(report.RatingErrors) < maxSampledErrors {
				report.RatingErrors = append(report.RatingErrors, pe)
			}
			log.Warn("unparseable rating", zap.Int("row", row), zap.String("value", pe.Value), zap.String("policy", string(policy)))
			if policy == RatingDrop {
				report.Dropped++
				continue
			}
		} else if ok {
			rec.Rating = v
		}

		b.Append(rec)
	}

	store := b.Build()
	report.Rows = store.Len()

	log.Info("load complete",
		zap.Int("rows", report.Rows),
		zap.Int("dropped", report.Dropped),
		zap.Int("rating_errors", report.RatingErrorCount),
		zap.Duration("took", time.Since(start)))
	return store, report, nil
}

// parseCost parses "1,200" -> 1200. Empty is absent.
func parseCost(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid cost %q", s)
	}
	return v, nil
}

// parseVotes parses a non-negative integer. Empty is absent.
func parseVotes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MissingVotes, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative votes %d", v)
	}
	return v, nil
}
