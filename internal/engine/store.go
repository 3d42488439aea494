package engine

import "math"

// MissingVotes marks an absent vote count. Votes are never negative otherwise.
const MissingVotes int64 = -1

// noID marks an absent value in a dictionary encoded column.
const noID int32 = -1

// ColumnStore holds data in Struct-of-Arrays format.
// Absent floats are NaN, absent votes are MissingVotes and absent
// categorical values are -1.
type ColumnStore struct {
	// Data Columns (Flat Arrays)
	Ratings []float64
	Costs   []float64
	Votes   []int64
	Names   []string

	// Dictionary Encoded IDs (0..N)
	CategoryIDs []int32
	ModeIDs     []int32
	BookingIDs  []int32

	// Dictionaries (ID -> String)
	CategoryDict []string
	ModeDict     []string
	BookingDict  []string
}

// Record is one row of the dataset in decoded form.
type Record struct {
	Name        string
	OnlineOrder string
	BookTable   string
	Rating      float64
	Votes       int64
	Cost        float64
	Category    string
}

// HasRating reports whether the record carries a rating.
func (r Record) HasRating() bool { return !math.IsNaN(r.Rating) }

// HasCost reports whether the record carries a cost.
func (r Record) HasCost() bool { return !math.IsNaN(r.Cost) }

// Len returns the number of rows.
func (cs *ColumnStore) Len() int { return len(cs.Ratings) }

// Record decodes row i.
func (cs *ColumnStore) Record(i int) Record {
	return Record{
		Name:        cs.Names[i],
		OnlineOrder: lookup(cs.ModeDict, cs.ModeIDs[i]),
		BookTable:   lookup(cs.BookingDict, cs.BookingIDs[i]),
		Rating:      cs.Ratings[i],
		Votes:       cs.Votes[i],
		Cost:        cs.Costs[i],
		Category:    lookup(cs.CategoryDict, cs.CategoryIDs[i]),
	}
}

// CostRange returns the observed min and max cost. ok is false when no
// row carries a cost.
func (cs *ColumnStore) CostRange() (lo, hi float64, ok bool) {
	for _, c := range cs.Costs {
		if math.IsNaN(c) {
			continue
		}
		if !ok {
			lo, hi, ok = c, c, true
			continue
		}
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	return lo, hi, ok
}

func lookup(dict []string, id int32) string {
	if id == noID {
		return ""
	}
	return dict[id]
}

func indexOf(dict []string, s string) int32 {
	for i, v := range dict {
		if v == s {
			return int32(i)
		}
	}
	return noID
}

// dictionary interns strings into dense ids.
type dictionary struct {
	ids    map[string]int32
	values []string
}

func newDictionary() *dictionary {
	return &dictionary{ids: make(map[string]int32)}
}

func (d *dictionary) intern(s string) int32 {
	if s == "" {
		return noID
	}
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := int32(len(d.values))
	d.values = append(d.values, s)
	d.ids[s] = id
	return id
}

// Builder appends decoded records into a ColumnStore.
type Builder struct {
	store    *ColumnStore
	category *dictionary
	mode     *dictionary
	booking  *dictionary
}

func NewBuilder(capacity int) *Builder {
	return &Builder{
		store: &ColumnStore{
			Ratings:     make([]float64, 0, capacity),
			Costs:       make([]float64, 0, capacity),
			Votes:       make([]int64, 0, capacity),
			Names:       make([]string, 0, capacity),
			CategoryIDs: make([]int32, 0, capacity),
			ModeIDs:     make([]int32, 0, capacity),
			BookingIDs:  make([]int32, 0, capacity),
		},
		category: newDictionary(),
		mode:     newDictionary(),
		booking:  newDictionary(),
	}
}

func (b *Builder) Append(r Record) {
	s := b.store
	s.Ratings = append(s.Ratings, r.Rating)
	s.Costs = append(s.Costs, r.Cost)
	s.Votes = append(s.Votes, r.Votes)
	s.Names = append(s.Names, r.Name)
	s.CategoryIDs = append(s.CategoryIDs, b.category.intern(r.Category))
	s.ModeIDs = append(s.ModeIDs, b.mode.intern(r.OnlineOrder))
	s.BookingIDs = append(s.BookingIDs, b.booking.intern(r.BookTable))
}

// Build returns the finished store. The builder must not be used afterwards.
func (b *Builder) Build() *ColumnStore {
	b.store.CategoryDict = b.category.values
	b.store.ModeDict = b.mode.values
	b.store.BookingDict = b.booking.values
	return b.store
}
