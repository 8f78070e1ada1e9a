package bench

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("203"))
)

// Table renders results grouped by input, fastest probe first. The best
// throughput per input is highlighted.
func Table(results []Result) string {
	order := make(map[string]int)
	for _, r := range results {
		if _, ok := order[r.Input]; !ok {
			order[r.Input] = len(order)
		}
	}
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := order[sorted[i].Input], order[sorted[j].Input]
		if oi != oj {
			return oi < oj
		}
		return rank(sorted[i]) < rank(sorted[j])
	})

	best := make(map[string]float64)
	for _, r := range sorted {
		if r.OK && r.MBPerSec() > best[r.Input] {
			best[r.Input] = r.MBPerSec()
		}
	}

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		if !r.OK {
			rows = append(rows, []string{r.Input, r.Probe, fmt.Sprint(r.Bytes), "rejected", "-"})
			continue
		}
		rows = append(rows, []string{
			r.Input,
			r.Probe,
			fmt.Sprint(r.Bytes),
			fmt.Sprintf("%.0f", r.NsPerOp()),
			fmt.Sprintf("%.1f", r.MBPerSec()),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("input", "probe", "bytes", "ns/op", "MB/s").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(sorted) {
				return cellStyle
			}
			r := sorted[row]
			switch {
			case !r.OK:
				return failStyle
			case col == 4 && r.MBPerSec() == best[r.Input]:
				return bestStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// rank orders successful results by speed and rejections last.
func rank(r Result) float64 {
	if !r.OK {
		return 1e300
	}
	return r.NsPerOp()
}
