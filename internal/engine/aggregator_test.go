package engine

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zomato-dashboard/internal/models"
)

func TestKPIs(t *testing.T) {
	cs := orders()
	k := cs.Filter(cs.DefaultCriteria()).KPIs()

	assert.False(t, k.NoData)
	assert.Equal(t, models.Some(5), k.TotalOrders)
	// rating of row d is absent: (4 + 3 + 4.5 + 2.5) / 4
	assert.Equal(t, models.Some(3.5), k.AverageRating)
	assert.Equal(t, models.Some(280), k.AverageCost)
}

func TestKPIsNoData(t *testing.T) {
	cs := orders()
	v := cs.Filter(Criteria{Mode: OrderModeAll, CostMin: 100, CostMax: 500})
	require.True(t, v.Empty())

	k := v.KPIs()
	assert.True(t, k.NoData)
	assert.False(t, k.TotalOrders.Valid)
	assert.False(t, k.AverageRating.Valid)
	assert.False(t, k.AverageCost.Valid)

	b, err := json.Marshal(k)
	require.NoError(t, err)
	assert.JSONEq(t, `{"no_data":true,"total_orders":null,"average_rating":null,"average_cost":null}`, string(b))
}

func TestKPIsAllRatingsAbsent(t *testing.T) {
	cs := orders()
	// only row d: Cafe, Yes, 300, rating absent
	v := cs.Filter(Criteria{Mode: OrderModeOnline, Categories: []string{"Cafe"}, CostMin: 300, CostMax: 300})
	require.Equal(t, 1, v.Len())

	k := v.KPIs()
	assert.Equal(t, models.Some(1), k.TotalOrders)
	assert.False(t, k.AverageRating.Valid)
	assert.Equal(t, models.Some(300), k.AverageCost)
}

func TestVotesByCategory(t *testing.T) {
	cs := orders()

	got := cs.Filter(cs.DefaultCriteria()).VotesByCategory()
	assert.Equal(t, []models.CategoryVotes{{Category: "Buffet", Votes: 30}, {Category: "Cafe", Votes: 70}}, got)

	// groups without rows are omitted, not zero-filled
	got = cs.Filter(Criteria{Mode: OrderModeAll, Categories: []string{"Cafe"}, CostMin: 100, CostMax: 500}).VotesByCategory()
	assert.Equal(t, []models.CategoryVotes{{Category: "Cafe", Votes: 70}}, got)
}

func TestCrossTabDense(t *testing.T) {
	cs := orders()
	ct := cs.Filter(Criteria{Mode: OrderModeAll, Categories: cs.Categories(), CostMin: 200, CostMax: 300}).CrossTab()

	assert.Equal(t, []string{"Buffet", "Cafe"}, ct.Rows)
	assert.Equal(t, []string{"No", "Yes"}, ct.Columns)
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, ct.Counts)
}

func TestCrossTabTotalsMatchRowCount(t *testing.T) {
	cs := orders()
	all := cs.Categories()
	for _, c := range []Criteria{
		cs.DefaultCriteria(),
		{Mode: OrderModeOnline, Categories: []string{"Cafe"}, CostMin: 100, CostMax: 300},
		{Mode: OrderModeOffline, Categories: all, CostMin: 100, CostMax: 500},
		{Mode: OrderModeAll, Categories: nil, CostMin: 100, CostMax: 500},
	} {
		v := cs.Filter(c)
		assert.Equal(t, v.Len(), v.CrossTab().Total(), "criteria %+v", c)
	}
}

func TestCrossTabAbsentMode(t *testing.T) {
	b := NewBuilder(2)
	b.Append(Record{Category: "Cafe", OnlineOrder: "Yes", Cost: 100, Rating: nan(), Votes: 1})
	b.Append(Record{Category: "Cafe", OnlineOrder: "", Cost: 100, Rating: nan(), Votes: 1})
	cs := b.Build()

	v := cs.Filter(cs.DefaultCriteria())
	ct := v.CrossTab()
	assert.Equal(t, []string{MissingLabel, "Yes"}, ct.Columns)
	assert.Equal(t, v.Len(), ct.Total())
}

func TestAggregate(t *testing.T) {
	cs := orders()
	data := cs.Filter(cs.DefaultCriteria()).Aggregate()

	assert.False(t, data.NoData)
	assert.Equal(t, []models.CategoryCount{{Category: "Buffet", Count: 2}, {Category: "Cafe", Count: 3}}, data.CategoryCounts)
	assert.Equal(t, []models.ValueCount{{Value: "No", Count: 3}, {Value: "Yes", Count: 2}}, data.TableBooking)
	assert.Equal(t, []models.CostCount{{Cost: 100, Count: 1}, {Cost: 300, Count: 1}, {Cost: 500, Count: 1}}, data.OnlineCostCounts)
	assert.Equal(t, []models.ModeMean{{Mode: "No", Mean: models.Some(2.75)}, {Mode: "Yes", Mean: models.Some(4.25)}}, data.RatingByMode)
	assert.Equal(t, []models.CategoryCount{{Category: "Buffet", Count: 1}, {Category: "Cafe", Count: 1}}, data.OfflineByCategory)
	assert.Len(t, data.OrdersByCategoryMode, 4)

	require.Len(t, data.RatingHistogram, RatingBins)
	total := 0
	for _, bin := range data.RatingHistogram {
		total += bin.Count
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, 2.5, data.RatingHistogram[0].Lower)
	assert.Equal(t, 4.5, data.RatingHistogram[RatingBins-1].Upper)

	require.Len(t, data.RatingSpread, 2)
	assert.Equal(t, "Yes", data.RatingSpread[1].Mode)
	assert.Equal(t, 2, data.RatingSpread[1].Count, "row d has no rating")
	assert.Equal(t, 4.0, data.RatingSpread[1].Min)
	assert.Equal(t, 4.5, data.RatingSpread[1].Max)
}

func TestAggregateNoData(t *testing.T) {
	cs := orders()
	data := cs.Filter(Criteria{Mode: OrderModeAll, CostMin: 100, CostMax: 500}).Aggregate()

	assert.True(t, data.NoData)
	assert.True(t, data.KPIs.NoData)
	assert.Empty(t, data.CategoryCounts)
	assert.Empty(t, data.VotesByCategory)
	assert.Empty(t, data.RatingHistogram)
	assert.Empty(t, data.CrossTab.Rows)
	// the full-dataset tables are unaffected by the filters
	assert.NotEmpty(t, data.Overall.VotesByCategory)
}

func TestOverall(t *testing.T) {
	o := orders().Overall()

	assert.Equal(t, []models.CategoryVotes{{Category: "Buffet", Votes: 30}, {Category: "Cafe", Votes: 75}}, o.VotesByCategory)
	assert.Equal(t, CorrelationColumns, o.Correlation.Columns)
	require.Len(t, o.Correlation.Matrix, 3)
	for i := range o.Correlation.Matrix {
		require.True(t, o.Correlation.Matrix[i][i].Valid)
		assert.InDelta(t, 1.0, o.Correlation.Matrix[i][i].Value, 1e-9)
		for j := range o.Correlation.Matrix {
			assert.InDelta(t, o.Correlation.Matrix[i][j].Value, o.Correlation.Matrix[j][i].Value, 1e-9)
		}
	}
	require.Len(t, o.CostByMode, 2)
	assert.Equal(t, "No", o.CostByMode[0].Mode)
	assert.Equal(t, 200.0, o.CostByMode[0].Min)
	assert.Equal(t, 300.0, o.CostByMode[0].Max)
}

func TestSummary(t *testing.T) {
	cs := orders()
	s := cs.Filter(cs.DefaultCriteria()).Summary()
	require.Len(t, s, 3)

	assert.Equal(t, ColRating, s[0].Column)
	assert.Equal(t, 4, s[0].Count)
	assert.Equal(t, models.Some(3.5), s[0].Mean)
	assert.Equal(t, models.Some(2.5), s[0].Min)
	assert.Equal(t, models.Some(4.5), s[0].Max)

	assert.Equal(t, ColVotes, s[1].Column)
	assert.Equal(t, 4, s[1].Count, "missing votes are skipped")

	assert.Equal(t, models.Some(280), s[2].Mean)
}

func TestHistogramSingleValue(t *testing.T) {
	bins := histogram([]float64{3, 3, nan()}, 6)
	require.Len(t, bins, 6)
	assert.Equal(t, 2.5, bins[0].Lower)
	assert.Equal(t, 3.5, bins[5].Upper)
	n := 0
	for _, b := range bins {
		n += b.Count
	}
	assert.Equal(t, 2, n)
}

func TestPearsonNeedsTwoPairs(t *testing.T) {
	assert.False(t, pearson([]float64{1, nan()}, []float64{2, 3}).Valid)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{3, 2, 1}).Value, 1e-9)
}

func TestKPIsRoundHalfToEven(t *testing.T) {
	// mean cost is exactly 100.125
	b := NewBuilder(8)
	for i := 0; i < 8; i++ {
		cost := 100.0
		if i == 7 {
			cost = 101
		}
		b.Append(Record{Category: "Cafe", OnlineOrder: "Yes", Cost: cost, Rating: 4, Votes: 1})
	}
	cs := b.Build()

	k := cs.Filter(cs.DefaultCriteria()).KPIs()
	assert.Equal(t, models.Some(100.12), k.AverageCost)
	assert.Equal(t, 0.12, round2(0.125))
	assert.Equal(t, 0.38, round2(0.375))
}

func TestHistogramEdges(t *testing.T) {
	bins := histogram([]float64{0, 1, 2, 3, 4, 5, 6}, 6)
	require.Len(t, bins, 6)
	counts := make([]int, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	// the maximum lands in the closed last bin
	assert.Equal(t, []int{1, 1, 1, 1, 1, 2}, counts)
	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 6.0, bins[5].Upper)
}

func TestCostCountsAscending(t *testing.T) {
	cs := orders()
	got := cs.All().CostCounts(OrderModeOnline)
	// rows a, c, d, g are online with a cost
	assert.Equal(t, []models.CostCount{{Cost: 100, Count: 1}, {Cost: 250, Count: 1}, {Cost: 300, Count: 1}, {Cost: 500, Count: 1}}, got)
}
