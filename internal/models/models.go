package models

import (
	"math"
	"strconv"
)

// Stat is a number that may be "no data". It encodes as JSON null when
// Valid is false.
type Stat struct {
	Value float64
	Valid bool
}

func Some(v float64) Stat { return Stat{Value: v, Valid: true} }

func None() Stat { return Stat{} }

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, s.Value, 'f', -1, 64), nil
}

func (s *Stat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Stat{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*s = Some(v)
	return nil
}

type KPIs struct {
	NoData        bool `json:"no_data"`
	TotalOrders   Stat `json:"total_orders"`
	AverageRating Stat `json:"average_rating"`
	AverageCost   Stat `json:"average_cost"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryVotes struct {
	Category string `json:"category"`
	Votes    int64  `json:"votes"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type CostCount struct {
	Cost  float64 `json:"cost"`
	Count int     `json:"count"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type ModeMean struct {
	Mode string `json:"mode"`
	Mean Stat   `json:"mean"`
}

// BoxStats is a five-number summary.
type BoxStats struct {
	Mode   string  `json:"mode"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// CrossTab is a dense Rows x Columns grid of counts.
type CrossTab struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

// Total sums every cell.
func (ct CrossTab) Total() int {
	n := 0
	for _, row := range ct.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

type CategoryModeCount struct {
	Category string `json:"category"`
	Mode     string `json:"mode"`
	Count    int    `json:"count"`
}

// Correlation is a square Pearson matrix over Columns.
type Correlation struct {
	Columns []string `json:"columns"`
	Matrix  [][]Stat `json:"matrix"`
}

// Overall holds tables computed over the full dataset regardless of filters.
type Overall struct {
	VotesByCategory []CategoryVotes `json:"votes_by_category"`
	VotesByMode     []BoxStats      `json:"votes_by_mode"`
	CostByMode      []BoxStats      `json:"cost_by_mode"`
	Correlation     Correlation     `json:"correlation"`
}

type DashboardData struct {
	NoData               bool                `json:"no_data"`
	KPIs                 KPIs                `json:"kpis"`
	CategoryCounts       []CategoryCount     `json:"category_counts"`
	VotesByCategory      []CategoryVotes     `json:"votes_by_category"`
	RatingHistogram      []HistogramBin      `json:"rating_histogram"`
	TableBooking         []ValueCount        `json:"table_booking"`
	OnlineCostCounts     []CostCount         `json:"online_cost_counts"`
	RatingByMode         []ModeMean          `json:"rating_by_mode"`
	RatingSpread         []BoxStats          `json:"rating_spread"`
	OfflineByCategory    []CategoryCount     `json:"offline_by_category"`
	CrossTab             CrossTab            `json:"cross_tab"`
	OrdersByCategoryMode []CategoryModeCount `json:"orders_by_category_mode"`
	Overall              Overall             `json:"overall"`
}

// Options are the control defaults handed to the front end.
type Options struct {
	OrderModes []string `json:"order_modes"`
	Categories []string `json:"categories"`
	CostMin    float64  `json:"cost_min"`
	CostMax    float64  `json:"cost_max"`
}

// Row is one raw record for the data preview.
type Row struct {
	Name        string `json:"name"`
	OnlineOrder string `json:"online_order"`
	BookTable   string `json:"book_table"`
	Rating      Stat   `json:"rate"`
	Votes       Stat   `json:"votes"`
	Cost        Stat   `json:"approx_cost"`
	Category    string `json:"category"`
}

// ColumnSummary is a describe-style summary of one numeric column.
type ColumnSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Stat   `json:"mean"`
	Std    Stat   `json:"std"`
	Min    Stat   `json:"min"`
	Q1     Stat   `json:"q1"`
	Median Stat   `json:"median"`
	Q3     Stat   `json:"q3"`
	Max    Stat   `json:"max"`
}
