package valuation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

// NAVPoint is one snapshot reduced to chart values.
type NAVPoint struct {
	AsOf time.Time
	NAV  decimal.Decimal
	Cost decimal.Decimal
}

func navPointFromSnapshot(snap models.ValuationSnapshot) (NAVPoint, error) {
	totals, err := DecodeTotals(snap.TotalsJSON)
	if err != nil {
		return NAVPoint{}, err
	}
	positions, err := DecodePositions(snap.PositionsJSON)
	if err != nil {
		return NAVPoint{}, err
	}
	cost := decimal.Zero
	for _, p := range positions {
		cost = cost.Add(p.CostValueBase)
	}
	return NAVPoint{AsOf: snap.AsOf, NAV: totals.NAV, Cost: cost}, nil
}

// RenderNAVChart renders a PNG line chart from NAV points.
// Two series: NAV (blue solid) and Cost Basis (gray dashed).
func RenderNAVChart(points []NAVPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 snapshots, got %d", models.ErrInvalidArgument, len(points))
	}

	xValues := make([]time.Time, len(points))
	navY := make([]float64, len(points))
	costY := make([]float64, len(points))

	for i, p := range points {
		xValues[i] = p.AsOf
		navY[i] = p.NAV.InexactFloat64()
		costY[i] = p.Cost.InexactFloat64()
	}

	navSeries := chart.TimeSeries{
		Name: "NAV",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: navY,
	}

	costSeries := chart.TimeSeries{
		Name: "Cost Basis",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: costY,
	}

	graph := chart.Chart{
		Title:  "Net Asset Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("02 Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return formatAxisValue(f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			navSeries,
			costSeries,
		},
	}

	// go-chart rejects a zero-height range, which a flat NAV produces.
	if lo, hi := bounds(navY, costY); lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

func formatAxisValue(f float64) string {
	switch {
	case f >= 1e6 || f <= -1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e4 || f <= -1e4:
		return fmt.Sprintf("%.0fk", f/1e3)
	default:
		return fmt.Sprintf("%.0f", f)
	}
}

func bounds(series ...[]float64) (lo, hi float64) {
	first := true
	for _, ys := range series {
		for _, y := range ys {
			if first || y < lo {
				lo = y
			}
			if first || y > hi {
				hi = y
			}
			first = false
		}
	}
	return lo, hi
}
