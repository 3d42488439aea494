package engine

import (
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadColumnar(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "orders_*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(sampleCSV); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}

	store, report, err := LoadColumnar(tmpFile.Name(), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 5 {
		t.Fatalf("Expected 5 rows, got %d", store.Len())
	}
	if report.Rows != 5 || report.RatingErrorCount != 0 {
		t.Errorf("unexpected report %+v", report)
	}

	// Row 0 Check
	if store.Ratings[0] != 4.1 {
		t.Errorf("Row 0 Rating: Expected 4.1, got %f", store.Ratings[0])
	}
	if store.Costs[0] != 800 {
		t.Errorf("Row 0 Cost: Expected 800, got %f", store.Costs[0])
	}
	if store.Votes[0] != 775 {
		t.Errorf("Row 0 Votes: Expected 775, got %d", store.Votes[0])
	}

	// Dictionary Checks
	if len(store.CategoryDict) != 2 {
		t.Errorf("Expected 2 unique categories, got %d", len(store.CategoryDict))
	}
	if len(store.ModeDict) != 2 {
		t.Errorf("Expected 2 order modes, got %d", len(store.ModeDict))
	}
	if got := store.Record(3); got.Name != "Addhuri Udupi Bhojana" || got.OnlineOrder != "No" || got.Category != "Cafe" {
		t.Errorf("Row 3 decoded wrongly: %+v", got)
	}
}

func TestLoadColumnarMissingFile(t *testing.T) {
	_, _, err := LoadColumnar("does-not-exist.csv", LoadOptions{})
	assert.Error(t, err)
}

const unparseableCSV = `online_order,book_table,rate,votes,approx_cost(for two people),listed_in(type)
Yes,No,4.1/5,10,"1,200",Dining
No,No,NEW,0,300,Cafe
Yes,Yes,,3,,Cafe
No,No,-,1,400,Cafe
`

func TestReadColumnarRatingPolicies(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		store, report, err := ReadColumnar(strings.NewReader(unparseableCSV), LoadOptions{RatingPolicy: RatingAbsent})
		require.NoError(t, err)
		assert.Equal(t, 4, store.Len())
		assert.Equal(t, 2, report.RatingErrorCount)
		require.Len(t, report.RatingErrors, 2)
		assert.Equal(t, 2, report.RatingErrors[0].Row)
		assert.Equal(t, "NEW", report.RatingErrors[0].Value)
		assert.True(t, math.IsNaN(store.Ratings[1]))
		assert.True(t, math.IsNaN(store.Ratings[2]), "empty rating is absent")
		assert.Equal(t, 1200.0, store.Costs[0], "thousands separator")
		assert.True(t, math.IsNaN(store.Costs[2]), "empty cost is absent")
	})

	t.Run("drop", func(t *testing.T) {
		store, report, err := ReadColumnar(strings.NewReader(unparseableCSV), LoadOptions{RatingPolicy: RatingDrop})
		require.NoError(t, err)
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, 2, report.Dropped)
		assert.Equal(t, 2, report.RatingErrorCount)
	})

	t.Run("strict", func(t *testing.T) {
		_, _, err := ReadColumnar(strings.NewReader(unparseableCSV), LoadOptions{RatingPolicy: RatingStrict})
		require.Error(t, err)
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 2, pe.Row)
		assert.ErrorIs(t, err, ErrRatingSyntax)
	})
}

func TestReadColumnarFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{"empty", "", ErrMalformedInput},
		{"missing column", "online_order,rate,votes,approx_cost(for two people),listed_in(type)\nYes,4/5,1,100,Cafe\n", ErrMissingColumn},
		{"bad cost", "online_order,book_table,rate,votes,approx_cost(for two people),listed_in(type)\nYes,No,4/5,1,cheap,Cafe\n", ErrMalformedInput},
		{"negative votes", "online_order,book_table,rate,votes,approx_cost(for two people),listed_in(type)\nYes,No,4/5,-3,100,Cafe\n", ErrMalformedInput},
		{"ragged row", "online_order,book_table,rate,votes,approx_cost(for two people),listed_in(type)\nYes,No,4/5\n", ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadColumnar(strings.NewReader(tt.csv), LoadOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
