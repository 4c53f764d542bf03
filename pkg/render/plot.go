package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

const (
	chartTitle     = "Type Activity"
	seriesAdded    = "Added"
	seriesRemoved  = "Removed"
	stackName      = "edits"
	rotateDegrees  = 45
	colorAdded     = "#3ba272"
	colorRemoved   = "#ee6666"
	emptySubtitle  = "No data"
	activityXLabel = "Commit date"
	dayLayout      = "2006-01-02"
	activityYLabel = "Edit events"
)

// CommitActivity counts the edit events attributed to one commit.
type CommitActivity struct {
	CommitID string
	Date     string
	Added    int
	Removed  int
}

// ActivityByCommit tallies doc.Dates per included commit, in commit order.
// Edit events carry only the commit ID, so commits sharing an ID are merged
// into the row of the first one.
func ActivityByCommit(doc *view.Document) []CommitActivity {
	rows := make([]CommitActivity, 0, len(doc.Commits))
	index := make(map[string]int, len(doc.Commits))

	for _, c := range doc.Commits {
		if _, seen := index[c.CommitID]; seen {
			continue
		}

		index[c.CommitID] = len(rows)
		rows = append(rows, CommitActivity{CommitID: c.CommitID, Date: c.Date})
	}

	for _, event := range doc.Dates {
		i, ok := index[event.CommitID]
		if !ok {
			continue
		}

		if event.Edit == view.Add {
			rows[i].Added++
		} else {
			rows[i].Removed++
		}
	}

	return rows
}

// GenerateChart builds a stacked bar chart of additions and removals per commit.
func GenerateChart(doc *view.Document) *charts.Bar {
	rows := ActivityByCommit(doc)
	if len(rows) == 0 {
		return createEmptyChart(doc.Name)
	}

	xLabels := make([]string, len(rows))
	added := make([]opts.BarData, len(rows))
	removed := make([]opts.BarData, len(rows))

	for i, row := range rows {
		xLabels[i] = commitLabel(row)
		added[i] = opts.BarData{Value: row.Added}
		removed[i] = opts.BarData{Value: row.Removed}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    chartTitle,
			Subtitle: doc.Name,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      activityXLabel,
			AxisLabel: &opts.AxisLabel{Rotate: rotateDegrees},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: activityYLabel}),
	)
	bar.SetXAxis(xLabels)
	bar.AddSeries(seriesAdded, added,
		charts.WithBarChartOpts(opts.BarChart{Stack: stackName}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAdded}),
	)
	bar.AddSeries(seriesRemoved, removed,
		charts.WithBarChartOpts(opts.BarChart{Stack: stackName}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRemoved}),
	)

	return bar
}

// commitLabel names a bar by its commit day and short ID. Dates that do not
// parse fall back to the ID alone.
func commitLabel(row CommitActivity) string {
	ts, err := history.ParseDate(row.Date)
	if err != nil {
		return shortID(row.CommitID)
	}

	return ts.Format(dayLayout) + " " + shortID(row.CommitID)
}

func createEmptyChart(name string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    chartTitle,
			Subtitle: name + ": " + emptySubtitle,
		}),
	)

	return bar
}

func writePlot(doc *view.Document, writer io.Writer) error {
	err := GenerateChart(doc).Render(writer)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
