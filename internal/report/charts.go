package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bilancio/internal/core"
)

// ErrNoChartData is returned when there is nothing to plot.
var ErrNoChartData = errors.New("no data to chart")

var expenseColor = drawing.ColorFromHex("c0392b")

// MonthlyExpenseChart renders one bar per YYYY-MM of the series.
func MonthlyExpenseChart(series []core.MonthTotal) ([]byte, error) {
	bars := make([]chart.Value, 0, len(series))
	top := 0.0
	for _, m := range series {
		v := m.Total.Float()
		if v > top {
			top = v
		}
		bars = append(bars, chart.Value{
			Label: m.YearMonth,
			Value: v,
			Style: chart.Style{
				FillColor:   expenseColor,
				StrokeColor: expenseColor,
			},
		})
	}
	if len(bars) == 0 || top == 0 {
		return nil, ErrNoChartData
	}

	const barWidth, barSpacing = 40, 20
	width := len(bars)*(barWidth+barSpacing) + 200
	if width < 800 {
		width = 800
	}

	graph := chart.BarChart{
		Title:  "Monthly expenses",
		Width:  width,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render monthly expense chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPieChart renders the expense breakdown with percentage labels.
func CategoryPieChart(breakdown []core.CategoryAmount) ([]byte, error) {
	var total int64
	for _, c := range breakdown {
		total += c.Amount.Cents
	}
	if total <= 0 {
		return nil, ErrNoChartData
	}

	values := make([]chart.Value, 0, len(breakdown))
	for _, c := range breakdown {
		if c.Amount.Cents <= 0 {
			continue
		}
		pct := float64(c.Amount.Cents) * 100 / float64(total)
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Name, c.Amount, pct),
			Value: c.Amount.Float(),
		})
	}

	pie := chart.PieChart{
		Title:  "Expenses by category",
		Width:  600,
		Height: 600,
		Values: values,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category pie chart: %w", err)
	}
	return buffer.Bytes(), nil
}
