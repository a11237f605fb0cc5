package export

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// loadBar stacks lighting and socket loads per room.
func loadBar(result model.Result, options Options) *charts.Bar {
	names := make([]string, len(result.Rooms))
	lighting := make([]opts.BarData, len(result.Rooms))
	sockets := make([]opts.BarData, len(result.Rooms))
	for i, r := range result.Rooms {
		names[i] = fmt.Sprintf("%d %s", r.ID, r.Name)
		lighting[i] = opts.BarData{Value: r.LightingLoad}
		sockets[i] = opts.BarData{Value: r.SocketsLoad}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "RoomLoad", Width: "100%", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Room Loads",
			Subtitle: fmt.Sprintf("total %.2f W / %.2f kVA, %s", result.TotalLoad, options.kva(result.TotalLoad), result.Timestamp),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "W"}),
	)
	bar.SetXAxis(names).
		AddSeries("Lighting", lighting, charts.WithBarChartOpts(opts.BarChart{Stack: "load"})).
		AddSeries("Sockets", sockets, charts.WithBarChartOpts(opts.BarChart{Stack: "load"}))
	return bar
}

// typePie shows the building load split by room type.
func typePie(result model.Result) *charts.Pie {
	byType := make(map[string]float64)
	for _, r := range result.Rooms {
		byType[r.Type] += r.TotalLoad
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	data := make([]opts.PieData, len(types))
	colors := make([]string, len(types))
	for i, t := range types {
		data[i] = opts.PieData{Name: t, Value: byType[t]}
		colors[i] = typeColor(t).hex()
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Load by Room Type"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors(colors)),
	)
	pie.AddSeries("type", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} W"}))
	return pie
}

// RenderLoadChart writes an HTML page with a stacked per-room load bar chart
// and a per-type pie chart.
func RenderLoadChart(w io.Writer, result model.Result, options Options) error {
	if err := checkResult(result); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = "RoomLoad"
	page.AddCharts(loadBar(result, options), typePie(result))
	return page.Render(w)
}

// WriteLoadChart renders the load chart into an HTML file.
func WriteLoadChart(path string, result model.Result, options Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderLoadChart(f, result, options); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
