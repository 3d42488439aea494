package engine

import (
	"errors"
	"math"
	"sort"

	"zomato-dashboard/internal/models"
)

// RatingBins is the number of rating histogram bins.
const RatingBins = 6

// MissingLabel names the group of rows whose grouping value is absent.
const MissingLabel = "(missing)"

// ErrNoData marks an output that has nothing to show for the current
// selection. An empty view is not a failure of the pipeline.
var ErrNoData = errors.New("no data in current selection")

// CorrelationColumns are the numeric columns of the correlation matrix.
var CorrelationColumns = []string{ColRating, ColVotes, ColCost}

// Aggregate computes every table of the dashboard for the view. Tables in
// Overall always cover the full dataset.
func (v *View) Aggregate() *models.DashboardData {
	data := &models.DashboardData{
		NoData:               v.Empty(),
		KPIs:                 v.KPIs(),
		CategoryCounts:       v.CategoryCounts(),
		VotesByCategory:      v.VotesByCategory(),
		RatingHistogram:      histogram(v.floats(v.store.Ratings), RatingBins),
		TableBooking:         v.TableBooking(),
		OnlineCostCounts:     v.CostCounts(OrderModeOnline),
		RatingByMode:         v.RatingByMode(),
		RatingSpread:         v.boxByMode(v.floats(v.store.Ratings)),
		OfflineByCategory:    v.CategoryCountsFor(OrderModeOffline),
		CrossTab:             v.CrossTab(),
		OrdersByCategoryMode: v.OrdersByCategoryMode(),
		Overall:              v.store.Overall(),
	}
	return data
}

// KPIs reports the row count, mean rating and mean cost. Every KPI is "no
// data" on an empty view.
func (v *View) KPIs() models.KPIs {
	if v.Empty() {
		return models.KPIs{NoData: true}
	}
	k := models.KPIs{TotalOrders: models.Some(float64(v.Len()))}
	if m := meanOf(v.floats(v.store.Ratings)); m.Valid {
		k.AverageRating = models.Some(round2(m.Value))
	}
	if m := meanOf(v.floats(v.store.Costs)); m.Valid {
		k.AverageCost = models.Some(round2(m.Value))
	}
	return k
}

// VotesByCategory sums votes per category. Categories without rows are
// omitted; absent vote counts contribute nothing.
func (v *View) VotesByCategory() []models.CategoryVotes {
	cs := v.store
	votes := make([]int64, len(cs.CategoryDict))
	seen := make([]bool, len(cs.CategoryDict))
	for _, r := range v.Rows {
		cid := cs.CategoryIDs[r]
		if cid == noID {
			continue
		}
		seen[cid] = true
		if n := cs.Votes[r]; n != MissingVotes {
			votes[cid] += n
		}
	}

	out := make([]models.CategoryVotes, 0, len(votes))
	for id, n := range votes {
		if seen[id] {
			out = append(out, models.CategoryVotes{Category: cs.CategoryDict[id], Votes: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// CrossTab counts rows by category x order mode. Every combination of the
// categories and modes present in the view is materialised, zero included.
// Rows with an absent mode are counted under MissingLabel.
func (v *View) CrossTab() models.CrossTab {
	cs := v.store
	numModes := len(cs.ModeDict) + 1 // last slot: absent mode
	matrix := make([]int, len(cs.CategoryDict)*numModes)
	catSeen := make([]bool, len(cs.CategoryDict))
	modeSeen := make([]bool, numModes)

	for _, r := range v.Rows {
		cid := cs.CategoryIDs[r]
		if cid == noID {
			continue
		}
		mid := int(cs.ModeIDs[r])
		if mid == int(noID) {
			mid = numModes - 1
		}
		matrix[int(cid)*numModes+mid]++
		catSeen[cid] = true
		modeSeen[mid] = true
	}

	type label struct {
		id   int
		name string
	}
	var rows, cols []label
	for id, ok := range catSeen {
		if ok {
			rows = append(rows, label{id, cs.CategoryDict[id]})
		}
	}
	for id, ok := range modeSeen {
		if !ok {
			continue
		}
		name := MissingLabel
		if id < len(cs.ModeDict) {
			name = cs.ModeDict[id]
		}
		cols = append(cols, label{id, name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	sort.Slice(cols, func(i, j int) bool { return cols[i].name < cols[j].name })

	ct := models.CrossTab{
		Rows:    make([]string, len(rows)),
		Columns: make([]string, len(cols)),
		Counts:  make([][]int, len(rows)),
	}
	for j, c := range cols {
		ct.Columns[j] = c.name
	}
	for i, r := range rows {
		ct.Rows[i] = r.name
		ct.Counts[i] = make([]int, len(cols))
		for j, c := range cols {
			ct.Counts[i][j] = matrix[r.id*numModes+c.id]
		}
	}
	return ct
}

// OrdersByCategoryMode is the non-zero part of CrossTab in long form.
func (v *View) OrdersByCategoryMode() []models.CategoryModeCount {
	ct := v.CrossTab()
	out := make([]models.CategoryModeCount, 0)
	for i, cat := range ct.Rows {
		for j, mode := range ct.Columns {
			if n := ct.Counts[i][j]; n > 0 {
				out = append(out, models.CategoryModeCount{Category: cat, Mode: mode, Count: n})
			}
		}
	}
	return out
}

// CategoryCounts counts rows per category, sorted by category.
func (v *View) CategoryCounts() []models.CategoryCount {
	out := v.categoryCounts(noID, false)
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// CategoryCountsFor counts the rows of one order mode per category, most
// frequent first.
func (v *View) CategoryCountsFor(mode OrderMode) []models.CategoryCount {
	mid := indexOf(v.store.ModeDict, string(mode))
	if mid == noID {
		return []models.CategoryCount{}
	}
	out := v.categoryCounts(mid, true)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (v *View) categoryCounts(modeID int32, byMode bool) []models.CategoryCount {
	cs := v.store
	counts := make([]int, len(cs.CategoryDict))
	for _, r := range v.Rows {
		cid := cs.CategoryIDs[r]
		if cid == noID || (byMode && cs.ModeIDs[r] != modeID) {
			continue
		}
		counts[cid]++
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			out = append(out, models.CategoryCount{Category: cs.CategoryDict[id], Count: n})
		}
	}
	return out
}

// TableBooking counts rows per table-booking value, most frequent first.
// Absent values are not counted.
func (v *View) TableBooking() []models.ValueCount {
	cs := v.store
	counts := make([]int, len(cs.BookingDict))
	for _, r := range v.Rows {
		if id := cs.BookingIDs[r]; id != noID {
			counts[id]++
		}
	}
	out := make([]models.ValueCount, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			out = append(out, models.ValueCount{Value: cs.BookingDict[id], Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// CostCounts counts rows per distinct cost among the rows of one order
// mode, ascending by cost.
func (v *View) CostCounts(mode OrderMode) []models.CostCount {
	cs := v.store
	mid := indexOf(cs.ModeDict, string(mode))
	if mid == noID {
		return []models.CostCount{}
	}
	counts := make(map[float64]int)
	for _, r := range v.Rows {
		if cs.ModeIDs[r] != mid || math.IsNaN(cs.Costs[r]) {
			continue
		}
		counts[cs.Costs[r]]++
	}
	out := make([]models.CostCount, 0, len(counts))
	for _, c := range sortedKeys(counts) {
		out = append(out, models.CostCount{Cost: c, Count: counts[c]})
	}
	return out
}

// RatingByMode averages the rating per order mode present in the view.
func (v *View) RatingByMode() []models.ModeMean {
	groups := v.groupByMode(v.floats(v.store.Ratings))
	out := make([]models.ModeMean, 0, len(groups))
	for _, g := range groups {
		m := meanOf(g.values)
		if m.Valid {
			m.Value = round2(m.Value)
		}
		out = append(out, models.ModeMean{Mode: g.mode, Mean: m})
	}
	return out
}

// Summary describes the rating, votes and cost columns of the view.
func (v *View) Summary() []models.ColumnSummary {
	return []models.ColumnSummary{
		describe(ColRating, v.floats(v.store.Ratings)),
		describe(ColVotes, v.voteFloats()),
		describe(ColCost, v.floats(v.store.Costs)),
	}
}

// Overall computes the tables that ignore the current filters.
func (cs *ColumnStore) Overall() models.Overall {
	all := cs.All()
	cols := [][]float64{all.floats(cs.Ratings), all.voteFloats(), all.floats(cs.Costs)}

	corr := models.Correlation{
		Columns: CorrelationColumns,
		Matrix:  make([][]models.Stat, len(cols)),
	}
	for i := range cols {
		corr.Matrix[i] = make([]models.Stat, len(cols))
		for j := range cols {
			corr.Matrix[i][j] = pearson(cols[i], cols[j])
		}
	}

	return models.Overall{
		VotesByCategory: all.VotesByCategory(),
		VotesByMode:     all.boxByMode(cols[1]),
		CostByMode:      all.boxByMode(cols[2]),
		Correlation:     corr,
	}
}

type modeGroup struct {
	mode   string
	values []float64
}

// groupByMode splits the view-aligned values by order mode, sorted by mode.
// Rows with an absent mode are skipped.
func (v *View) groupByMode(values []float64) []modeGroup {
	cs := v.store
	byMode := make(map[string][]float64)
	for i, r := range v.Rows {
		if mid := cs.ModeIDs[r]; mid != noID {
			mode := cs.ModeDict[mid]
			byMode[mode] = append(byMode[mode], values[i])
		}
	}
	out := make([]modeGroup, 0, len(byMode))
	for _, mode := range sortedKeys(byMode) {
		out = append(out, modeGroup{mode: mode, values: byMode[mode]})
	}
	return out
}

func (v *View) boxByMode(values []float64) []models.BoxStats {
	out := make([]models.BoxStats, 0, 2)
	for _, g := range v.groupByMode(values) {
		if b, ok := fiveNumber(g.mode, g.values); ok {
			out = append(out, b)
		}
	}
	return out
}

// floats gathers col at the view's rows.
func (v *View) floats(col []float64) []float64 {
	out := make([]float64, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = col[r]
	}
	return out
}

func (v *View) voteFloats() []float64 {
	out := make([]float64, len(v.Rows))
	for i, r := range v.Rows {
		if n := v.store.Votes[r]; n == MissingVotes {
			out[i] = math.NaN()
		} else {
			out[i] = float64(n)
		}
	}
	return out
}
