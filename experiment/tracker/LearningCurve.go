package tracker

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	ts "github.com/samuelfneumann/goreinforce/timestep"
	"github.com/samuelfneumann/goreinforce/utils/floatutils"
)

// LearningCurve tracks the learning progress of an agent in an
// experiment and renders it as an HTML page of charts. The page
// contains the raw episodic returns together with their moving
// average, the mean returns of any offline evaluations, and the
// agent's loss on each episode.
//
// Episodic returns are accumulated from the timesteps passed to
// Track(). Evaluation results and losses are not part of the
// environment's timestep stream, so experiments report them through
// TrackValidation() and TrackLoss().
type LearningCurve struct {
	currentReturn  float64
	episodeReturns []float64

	valEpisodes []int
	valReturns  []float64

	losses []float64

	window   int
	filename string
}

// NewLearningCurve returns a new LearningCurve Tracker which renders
// its charts to the HTML file at filename. The window argument sets
// the moving average window for the smoothed return series.
func NewLearningCurve(filename string, window int) *LearningCurve {
	if window < 1 {
		window = 1
	}
	return &LearningCurve{window: window, filename: filename}
}

// Track accumulates the episodic return from the timestep stream
func (l *LearningCurve) Track(step ts.TimeStep) {
	l.currentReturn += step.Reward
	if step.Last() {
		l.episodeReturns = append(l.episodeReturns, l.currentReturn)
		l.currentReturn = 0.0
	}
}

// TrackValidation records the mean return of an offline evaluation
// run after the given training episode
func (l *LearningCurve) TrackValidation(episode int, meanReturn float64) {
	l.valEpisodes = append(l.valEpisodes, episode)
	l.valReturns = append(l.valReturns, meanReturn)
}

// TrackLoss records the agent's loss on a training episode
func (l *LearningCurve) TrackLoss(loss float64) {
	l.losses = append(l.losses, loss)
}

// Save renders the tracked data as an HTML page of charts
func (l *LearningCurve) Save() error {
	page := components.NewPage()
	page.AddCharts(l.returnChart())
	if len(l.valReturns) > 0 {
		page.AddCharts(l.validationChart())
	}
	if len(l.losses) > 0 {
		page.AddCharts(l.lossChart())
	}

	f, err := os.Create(l.filename)
	if err != nil {
		return fmt.Errorf("save: could not open chart file: %v", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("save: could not render charts: %v", err)
	}
	return nil
}

func (l *LearningCurve) returnChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Episodic return"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)

	episodes := make([]string, len(l.episodeReturns))
	raw := make([]opts.LineData, len(l.episodeReturns))
	for i, ret := range l.episodeReturns {
		episodes[i] = fmt.Sprintf("%d", i+1)
		raw[i] = opts.LineData{Value: ret}
	}

	smoothedData := floatutils.MovingAverage(l.episodeReturns, l.window)
	smoothed := make([]opts.LineData, len(smoothedData))
	for i, ret := range smoothedData {
		smoothed[i] = opts.LineData{Value: ret}
	}

	line.SetXAxis(episodes)
	line.AddSeries("return", raw)
	line.AddSeries(fmt.Sprintf("moving average (%d)", l.window), smoothed)
	return line
}

func (l *LearningCurve) validationChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Validation mean return"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)

	episodes := make([]string, len(l.valEpisodes))
	points := make([]opts.LineData, len(l.valReturns))
	for i := range l.valEpisodes {
		episodes[i] = fmt.Sprintf("%d", l.valEpisodes[i])
		points[i] = opts.LineData{Value: l.valReturns[i]}
	}

	line.SetXAxis(episodes)
	line.AddSeries("validation", points)
	return line
}

func (l *LearningCurve) lossChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Loss"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)

	episodes := make([]string, len(l.losses))
	points := make([]opts.LineData, len(l.losses))
	for i, loss := range l.losses {
		episodes[i] = fmt.Sprintf("%d", i+1)
		points[i] = opts.LineData{Value: loss}
	}

	line.SetXAxis(episodes)
	line.AddSeries("loss", points)
	return line
}
