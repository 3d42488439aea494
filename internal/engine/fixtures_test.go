package engine

import (
	"math"
	"strings"
)

// sampleCSV mirrors the head of the real dataset.
const sampleCSV = `name,online_order,book_table,rate,votes,approx_cost(for two people),listed_in(type)
Jalsa,Yes,Yes,4.1/5,775,800,Buffet
Spice Elephant,Yes,No,4.1/5,787,800,Buffet
San Churro Cafe,Yes,No,3.8/5,918,800,Cafe
Addhuri Udupi Bhojana,No,No,3.7/5,88,300,Cafe
Grand Village,No,No,3.8/5,166,600,Buffet
`

func nan() float64 { return math.NaN() }

// orders builds a small store by hand:
//
//	row category mode cost rating votes
//	0   Cafe     Yes  100  4.0    10
//	1   Cafe     No   300  3.0    20
//	2   Buffet   Yes  500  4.5    30
//	3   Cafe     Yes  300  NaN    40
//	4   Buffet   No   200  2.5    -
//	5   Cafe     Yes  NaN  3.5    5
//	6   -        Yes  250  4.0    7
func orders() *ColumnStore {
	b := NewBuilder(8)
	for _, r := range []Record{
		{Name: "a", Category: "Cafe", OnlineOrder: "Yes", BookTable: "No", Cost: 100, Rating: 4.0, Votes: 10},
		{Name: "b", Category: "Cafe", OnlineOrder: "No", BookTable: "No", Cost: 300, Rating: 3.0, Votes: 20},
		{Name: "c", Category: "Buffet", OnlineOrder: "Yes", BookTable: "Yes", Cost: 500, Rating: 4.5, Votes: 30},
		{Name: "d", Category: "Cafe", OnlineOrder: "Yes", BookTable: "Yes", Cost: 300, Rating: nan(), Votes: 40},
		{Name: "e", Category: "Buffet", OnlineOrder: "No", BookTable: "No", Cost: 200, Rating: 2.5, Votes: MissingVotes},
		{Name: "f", Category: "Cafe", OnlineOrder: "Yes", BookTable: "No", Cost: nan(), Rating: 3.5, Votes: 5},
		{Name: "g", Category: "", OnlineOrder: "Yes", BookTable: "No", Cost: 250, Rating: 4.0, Votes: 7},
	} {
		b.Append(r)
	}
	return b.Build()
}

func names(v *View) []string {
	out := make([]string, 0, v.Len())
	for _, r := range v.Records() {
		out = append(out, r.Name)
	}
	return out
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
