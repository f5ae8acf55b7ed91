package charts

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/yanqian/airboard/internal/domain/dashboard"
)

// RenderParticulates draws PM10 and PM2.5 per device as a standalone HTML page.
func RenderParticulates(title string, markers []dashboard.Marker) ([]byte, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Particulate matter across %d devices (µg/m³)", len(markers)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Device",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "µg/m³",
		}),
	)

	names := make([]string, 0, len(markers))
	pm10 := make([]opts.BarData, 0, len(markers))
	pm25 := make([]opts.BarData, 0, len(markers))
	for _, m := range markers {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		names = append(names, name)
		pm10 = append(pm10, opts.BarData{Value: m.PM10.Value, ItemStyle: &opts.ItemStyle{Color: m.PM10.Band.Color}})
		pm25 = append(pm25, opts.BarData{Value: m.PM25.Value, ItemStyle: &opts.ItemStyle{Color: m.PM25.Band.Color}})
	}

	bar.SetXAxis(names).
		AddSeries("PM10", pm10).
		AddSeries("PM2.5", pm25)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render particulate chart: %w", err)
	}
	return buf.Bytes(), nil
}
