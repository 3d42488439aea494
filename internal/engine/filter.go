package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// OrderMode is the order-mode selector.
type OrderMode string

const (
	OrderModeAll     OrderMode = "All"
	OrderModeOnline  OrderMode = "Yes"
	OrderModeOffline OrderMode = "No"
)

// OrderModes lists the selector choices in display order.
var OrderModes = []OrderMode{OrderModeAll, OrderModeOnline, OrderModeOffline}

var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria selects rows. A nil or empty Categories selects nothing.
type Criteria struct {
	Mode       OrderMode
	Categories []string
	CostMin    float64
	CostMax    float64
}

// DefaultCriteria mirrors the control defaults: every mode, every category
// and the full observed cost range.
func (cs *ColumnStore) DefaultCriteria() Criteria {
	lo, hi, _ := cs.CostRange()
	return Criteria{
		Mode:       OrderModeAll,
		Categories: cs.Categories(),
		CostMin:    lo,
		CostMax:    hi,
	}
}

// Categories returns the distinct categories, sorted.
func (cs *ColumnStore) Categories() []string {
	out := make([]string, len(cs.CategoryDict))
	copy(out, cs.CategoryDict)
	sort.Strings(out)
	return out
}

// Validate checks c against the store's observed cost range.
func (c Criteria) Validate(cs *ColumnStore) error {
	switch c.Mode {
	case OrderModeAll, OrderModeOnline, OrderModeOffline:
	default:
		return fmt.Errorf("%w: unknown order mode %q", ErrInvalidCriteria, c.Mode)
	}
	if math.IsNaN(c.CostMin) || math.IsNaN(c.CostMax) {
		return fmt.Errorf("%w: cost bound is not a number", ErrInvalidCriteria)
	}
	if c.CostMin > c.CostMax {
		return fmt.Errorf("%w: cost_min %g > cost_max %g", ErrInvalidCriteria, c.CostMin, c.CostMax)
	}
	if lo, hi, ok := cs.CostRange(); ok && (c.CostMin < lo || c.CostMax > hi) {
		return fmt.Errorf("%w: cost range [%g,%g] outside observed [%g,%g]", ErrInvalidCriteria, c.CostMin, c.CostMax, lo, hi)
	}
	return nil
}

// View is a read-only projection of a ColumnStore.
type View struct {
	store *ColumnStore
	Rows  []int32
}

// All returns a view over every row.
func (cs *ColumnStore) All() *View {
	rows := make([]int32, cs.Len())
	for i := range rows {
		rows[i] = int32(i)
	}
	return &View{store: cs, Rows: rows}
}

// Filter is shorthand for cs.All().Filter(c).
func (cs *ColumnStore) Filter(c Criteria) *View {
	return cs.All().Filter(c)
}

func (v *View) Store() *ColumnStore { return v.store }

func (v *View) Len() int { return len(v.Rows) }

func (v *View) Empty() bool { return len(v.Rows) == 0 }

// Filter returns a new view holding the rows of v that satisfy every
// active predicate. Absent values never satisfy a predicate.
func (v *View) Filter(c Criteria) *View {
	cs := v.store
	out := &View{store: cs, Rows: make([]int32, 0, len(v.Rows))}

	selected := make([]bool, len(cs.CategoryDict))
	matched := false
	for _, name := range c.Categories {
		if id := indexOf(cs.CategoryDict, name); id != noID {
			selected[id] = true
			matched = true
		}
	}
	if !matched {
		return out
	}

	modeID := noID
	if c.Mode != OrderModeAll && c.Mode != "" {
		if modeID = indexOf(cs.ModeDict, string(c.Mode)); modeID == noID {
			return out
		}
	}

	for _, r := range v.Rows {
		cid := cs.CategoryIDs[r]
		if cid == noID || !selected[cid] {
			continue
		}
		// NaN fails both comparisons.
		cost := cs.Costs[r]
		if !(cost >= c.CostMin) || !(cost <= c.CostMax) {
			continue
		}
		if modeID != noID && cs.ModeIDs[r] != modeID {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Head returns up to limit records starting at offset.
func (v *View) Head(offset, limit int) []Record {
	if offset >= len(v.Rows) || limit <= 0 {
		return []Record{}
	}
	end := offset + limit
	if end > len(v.Rows) {
		end = len(v.Rows)
	}
	out := make([]Record, 0, end-offset)
	for _, r := range v.Rows[offset:end] {
		out = append(out, v.store.Record(int(r)))
	}
	return out
}

// Records decodes every row of the view.
func (v *View) Records() []Record {
	return v.Head(0, len(v.Rows))
}
