package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"zomato-dashboard/internal/engine"
	"zomato-dashboard/internal/models"
)

var (
	ErrNoData       = engine.ErrNoData
	ErrUnknownChart = errors.New("unknown chart")
)

// PNGContentType is the media type of every rendered chart.
const PNGContentType = "image/png"

const (
	chartHeight = 512
	barWidth    = 48
	barSpacing  = 16
)

var errNoOnlineOrders = fmt.Errorf("%w: no online orders", ErrNoData)

var printer = message.NewPrinter(language.English)

var bookingColors = []drawing.Color{
	drawing.ColorFromHex("66c2a5"),
	drawing.ColorFromHex("fc8d62"),
}

type chartDef struct {
	name  string
	title string
	draw  func(title string, d *models.DashboardData, w io.Writer) error
}

var charts = []chartDef{
	{"category_counts", "Count of Restaurant Types", drawCategoryCounts},
	{"votes_by_category", "Total Votes by Restaurant Type", drawVotesByCategory},
	{"rating_histogram", "Distribution of Ratings", drawRatingHistogram},
	{"table_booking", "Table Booking Availability", drawTableBooking},
	{"online_cost_counts", "Approx Cost for Two (Online Orders)", drawOnlineCostCounts},
	{"rating_by_mode", "Average Rating: Online vs Offline", drawRatingByMode},
	{"offline_by_category", "Offline Orders by Restaurant Type", drawOfflineByCategory},
	{"orders_by_category_mode", "Orders by Restaurant Type and Mode", drawOrdersByCategoryMode},
	{"rating_spread", "Rating Spread: Online vs Offline", drawRatingSpread},
	{"overall_votes_by_category", "Total Votes by Category (all data)", drawOverallVotes},
	{"votes_by_mode", "Votes Spread by Order Mode (all data)", drawVotesByMode},
	{"cost_by_mode", "Cost Spread by Order Mode (all data)", drawCostByMode},
	{"correlation", "Correlation of Rating, Votes and Cost (all data)", drawCorrelation},
}

// Names lists the available charts in display order.
func Names() []string {
	out := make([]string, len(charts))
	for i, s := range charts {
		out[i] = s.name
	}
	return out
}

// Render writes chart name for d as PNG. It returns ErrNoData when the
// chart has nothing to show.
func Render(name string, d *models.DashboardData, w io.Writer) error {
	for _, s := range charts {
		if s.name == name {
			return s.draw(s.title, d, w)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

func drawCategoryCounts(title string, d *models.DashboardData, w io.Writer) error {
	bars := make([]chart.Value, 0, len(d.CategoryCounts))
	for _, c := range d.CategoryCounts {
		bars = append(bars, chart.Value{Label: c.Category, Value: float64(c.Count)})
	}
	return barChart(title, bars, w)
}

func drawVotesByCategory(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(votesTitle(title, d.VotesByCategory), votesBars(d.VotesByCategory), w)
}

func drawOverallVotes(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(votesTitle(title, d.Overall.VotesByCategory), votesBars(d.Overall.VotesByCategory), w)
}

func votesBars(votes []models.CategoryVotes) []chart.Value {
	bars := make([]chart.Value, 0, len(votes))
	for _, v := range votes {
		bars = append(bars, chart.Value{Label: v.Category, Value: float64(v.Votes)})
	}
	return bars
}

func votesTitle(title string, votes []models.CategoryVotes) string {
	var total int64
	for _, v := range votes {
		total += v.Votes
	}
	return printer.Sprintf("%s (%d votes)", title, total)
}

func drawRatingHistogram(title string, d *models.DashboardData, w io.Writer) error {
	bars := make([]chart.Value, 0, len(d.RatingHistogram))
	for _, b := range d.RatingHistogram {
		bars = append(bars, chart.Value{Label: fmt.Sprintf("%.2f-%.2f", b.Lower, b.Upper), Value: float64(b.Count)})
	}
	return barChart(title, bars, w)
}

func drawTableBooking(title string, d *models.DashboardData, w io.Writer) error {
	if len(d.TableBooking) == 0 {
		return ErrNoData
	}
	var total int
	for _, v := range d.TableBooking {
		total += v.Count
	}
	values := make([]chart.Value, 0, len(d.TableBooking))
	for i, v := range d.TableBooking {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", v.Value, 100*float64(v.Count)/float64(total)),
			Value: float64(v.Count),
			Style: chart.Style{FillColor: bookingColors[i%len(bookingColors)]},
		})
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

func drawOnlineCostCounts(title string, d *models.DashboardData, w io.Writer) error {
	if len(d.OnlineCostCounts) == 0 {
		return errNoOnlineOrders
	}
	bars := make([]chart.Value, 0, len(d.OnlineCostCounts))
	for _, c := range d.OnlineCostCounts {
		bars = append(bars, chart.Value{Label: strconv.FormatFloat(c.Cost, 'f', -1, 64), Value: float64(c.Count)})
	}
	return barChart(title, bars, w)
}

func drawRatingByMode(title string, d *models.DashboardData, w io.Writer) error {
	bars := make([]chart.Value, 0, len(d.RatingByMode))
	for _, m := range d.RatingByMode {
		if m.Mean.Valid {
			bars = append(bars, chart.Value{Label: m.Mode, Value: m.Mean.Value})
		}
	}
	return barChart(title, bars, w)
}

func drawOfflineByCategory(title string, d *models.DashboardData, w io.Writer) error {
	bars := make([]chart.Value, 0, len(d.OfflineByCategory))
	for _, c := range d.OfflineByCategory {
		bars = append(bars, chart.Value{Label: c.Category, Value: float64(c.Count)})
	}
	return barChart(title, bars, w)
}

func drawOrdersByCategoryMode(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(title, ordersBars(d.OrdersByCategoryMode), w)
}

// ordersBars draws one bar per category and mode pair, at its row count.
func ordersBars(orders []models.CategoryModeCount) []chart.Value {
	bars := make([]chart.Value, 0, len(orders))
	for _, o := range orders {
		bars = append(bars, chart.Value{Label: o.Category + " · " + o.Mode, Value: float64(o.Count)})
	}
	return bars
}

func drawRatingSpread(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(title, boxBars(d.RatingSpread), w)
}

func drawVotesByMode(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(title, boxBars(d.Overall.VotesByMode), w)
}

func drawCostByMode(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(title, boxBars(d.Overall.CostByMode), w)
}

// boxBars lays the five-number summary of each mode out as adjacent bars.
func boxBars(boxes []models.BoxStats) []chart.Value {
	bars := make([]chart.Value, 0, 5*len(boxes))
	for _, b := range boxes {
		for _, q := range []struct {
			name  string
			value float64
		}{{"min", b.Min}, {"q1", b.Q1}, {"median", b.Median}, {"q3", b.Q3}, {"max", b.Max}} {
			bars = append(bars, chart.Value{Label: b.Mode + " " + q.name, Value: q.value})
		}
	}
	return bars
}

func drawCorrelation(title string, d *models.DashboardData, w io.Writer) error {
	return barChart(title, correlationBars(d.Overall.Correlation), w)
}

// correlationBars keeps the upper triangle of the matrix, skipping pairs
// without a coefficient.
func correlationBars(c models.Correlation) []chart.Value {
	var bars []chart.Value
	for i := range c.Matrix {
		for j := i + 1; j < len(c.Matrix[i]); j++ {
			if r := c.Matrix[i][j]; r.Valid {
				bars = append(bars, chart.Value{Label: c.Columns[i] + " × " + c.Columns[j], Value: r.Value})
			}
		}
	}
	return bars
}

func barChart(title string, bars []chart.Value, w io.Writer) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi == lo {
		hi = 1
	}
	// Negative values (correlations) hang below a zero baseline.
	bc := chart.BarChart{
		Title:        title,
		Width:        chartWidth(len(bars)),
		Height:       chartHeight,
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		Background:   chart.Style{Padding: chart.Box{Top: 40}},
		XAxis:        chart.Style{TextRotationDegrees: 45},
		YAxis:        chart.YAxis{Range: &chart.ContinuousRange{Min: lo * 1.1, Max: hi * 1.1}},
		UseBaseValue: lo < 0,
		Bars:         bars,
	}
	return bc.Render(chart.PNG, w)
}

func chartWidth(bars int) int {
	w := bars*(barWidth+barSpacing) + 200
	if w < 640 {
		return 640
	}
	return w
}
