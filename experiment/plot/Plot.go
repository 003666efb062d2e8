// Package plot renders learning curves of data tracked during an
// experiment as HTML line charts
package plot

import (
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/utils/floatutils"
)

// Series is a single named learning curve, with one value per episode
type Series struct {
	Name string
	Data []float64
}

// Config configures a learning curve chart
type Config struct {
	Title  string
	XLabel string
	YLabel string

	// Window is the number of episodes in the trailing moving average
	// added to each Series. A Window of 0 or 1 disables smoothing.
	Window int
}

// DefaultConfig returns the configuration of an episodic return chart
func DefaultConfig() Config {
	return Config{
		Title:  "Learning Curve",
		XLabel: "Episode",
		YLabel: "Return",
		Window: 10,
	}
}

// Smooth returns the trailing moving average of data over window
// elements. The first window-1 elements average over all preceding
// elements.
func Smooth(data []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = floatutils.Mean(data[start : i+1]...)
	}
	return out
}

// LearningCurve returns a line chart of each Series
func LearningCurve(config Config, series ...Series) (*charts.Line, error) {
	if len(series) == 0 {
		return nil, errors.New("learningCurve: no data to plot")
	}

	// The x-axis spans the longest Series
	episodes := 0
	for _, s := range series {
		if len(s.Data) > episodes {
			episodes = len(s.Data)
		}
	}
	if episodes == 0 {
		return nil, errors.New("learningCurve: all series are empty")
	}
	x := make([]string, episodes)
	for i := range x {
		x[i] = strconv.Itoa(i + 1)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: config.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: config.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: config.YLabel}),
	)
	line.SetXAxis(x)

	for _, s := range series {
		line.AddSeries(s.Name, lineData(s.Data))
		if config.Window > 1 {
			line.AddSeries(s.Name+" (smoothed)",
				lineData(Smooth(s.Data, config.Window)))
		}
	}

	return line, nil
}

func lineData(data []float64) []opts.LineData {
	items := make([]opts.LineData, len(data))
	for i, v := range data {
		items[i] = opts.LineData{Value: v}
	}
	return items
}

// Render writes the learning curve of each Series to w as HTML
func Render(w io.Writer, config Config, series ...Series) error {
	line, err := LearningCurve(config, series...)
	if err != nil {
		return errors.WithMessage(err, "render")
	}
	return errors.Wrap(line.Render(w), "render: could not render chart")
}

// Save writes the learning curve of each Series to an HTML file
func Save(filename string, config Config, series ...Series) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save: could not create plot file")
	}
	defer file.Close()

	return errors.WithMessage(Render(file, config, series...), "save")
}
