package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"zomato-dashboard/internal/models"
)

func printReport(w io.Writer, d *models.DashboardData) {
	p := message.NewPrinter(language.English)
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 56)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  RESTAURANT ORDERS DASHBOARD\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Key Metrics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if d.NoData {
		fmt.Fprintf(w, "  No data in current selection\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}
	fmt.Fprintf(w, "  Total orders   : \033[1m%s\033[0m\n", formatStat(p, d.KPIs.TotalOrders, "%.0f"))
	fmt.Fprintf(w, "  Average rating : \033[1;32m%s\033[0m\n", formatStat(p, d.KPIs.AverageRating, "%.2f"))
	fmt.Fprintf(w, "  Average cost   : \033[1;32m%s\033[0m\n", formatStat(p, d.KPIs.AverageCost, "%.2f"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Orders by Restaurant Type and Mode\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %-24s", "")
	for _, col := range d.CrossTab.Columns {
		fmt.Fprintf(w, " %10s", col)
	}
	fmt.Fprintln(w)
	for i, row := range d.CrossTab.Rows {
		fmt.Fprintf(w, "  %-24s", truncate(row, 24))
		for _, n := range d.CrossTab.Counts[i] {
			fmt.Fprintf(w, " %10s", p.Sprintf("%d", n))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Total Votes by Restaurant Type\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	var maxVotes int64
	for _, v := range d.VotesByCategory {
		if v.Votes > maxVotes {
			maxVotes = v.Votes
		}
	}
	for _, v := range d.VotesByCategory {
		bar := ""
		if maxVotes > 0 {
			bar = strings.Repeat("█", int(20*v.Votes/maxVotes))
		}
		fmt.Fprintf(w, "  %-24s %-20s %s\n", truncate(v.Category, 24), bar, p.Sprintf("%d", v.Votes))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Table Booking\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, v := range d.TableBooking {
		fmt.Fprintf(w, "  %-24s %s\n", v.Value, p.Sprintf("%d", v.Count))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Average Rating by Order Mode\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, m := range d.RatingByMode {
		fmt.Fprintf(w, "  Online order %-11s %s\n", m.Mode, formatStat(p, m.Mean, "%.2f"))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func formatStat(p *message.Printer, s models.Stat, format string) string {
	if !s.Valid {
		return "n/a"
	}
	return p.Sprintf(format, s.Value)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
