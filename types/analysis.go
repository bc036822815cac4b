package types

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/util"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// run, episode, experiment, trace
	Analyze(int, int, string, *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet) error

func NoopComparator() Comparator {
	return func(int, []string, []DataSet) error { return nil }
}

// ChainComparators runs every comparator on the same datasets and returns the first error
func ChainComparators(comparators ...Comparator) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		var first error
		for _, c := range comparators {
			if err := c(run, names, ds); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}

// SeriesAnalyzer records one value per episode, the dataset is a []float64
type SeriesAnalyzer struct {
	metric func(*Trace) float64
	values []float64
}

var _ Analyzer = &SeriesAnalyzer{}

func NewSeriesAnalyzer(metric func(*Trace) float64) *SeriesAnalyzer {
	return &SeriesAnalyzer{
		metric: metric,
		values: make([]float64, 0),
	}
}

func (s *SeriesAnalyzer) Analyze(_, _ int, _ string, t *Trace) {
	s.values = append(s.values, s.metric(t))
}

func (s *SeriesAnalyzer) DataSet() DataSet {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

func (s *SeriesAnalyzer) Reset() {
	s.values = make([]float64, 0)
}

// EpisodeLengthAnalyzer records the number of ticks survived per episode
func EpisodeLengthAnalyzer() *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *Trace) float64 {
		return float64(t.Len())
	})
}

// TotalRewardAnalyzer records the undiscounted return per episode
func TotalRewardAnalyzer() *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *Trace) float64 {
		return t.TotalReward()
	})
}

// BandOccupancyAnalyzer records the fraction of ticks spent inside the band
func BandOccupancyAnalyzer(band drone.Band) *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *Trace) float64 {
		if t.Len() == 0 {
			return 0
		}
		return float64(t.TicksInBand(band)) / float64(t.Len())
	})
}

// MovingAverage smooths the series over the trailing window
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		return values
	}
	out := make([]float64, len(values))
	for i := range values {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		out[i] = stat.Mean(values[from:i+1], nil)
	}
	return out
}

// SeriesPlotter draws one line per experiment of a SeriesAnalyzer dataset
func SeriesPlotter(plotPath, name, yLabel string, window int) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		if err := util.EnsureDir(plotPath); err != nil {
			return err
		}
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = yLabel
		for i := 0; i < len(names); i++ {
			values := MovingAverage(ds[i].([]float64), window)
			if len(values) == 0 {
				continue
			}
			points := make(plotter.XYs, len(values))
			for j, v := range values {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Mean %s: %.3f for benchmark: %s\n", name, stat.Mean(ds[i].([]float64), nil), names[i])
		}
		return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_"+name+".png"))
	}
}

// JSONDumper writes the datasets of a run keyed by experiment name
func JSONDumper(savePath, name string) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		out := make(map[string]DataSet, len(names))
		for i, n := range names {
			out[n] = ds[i]
		}
		bs, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return util.WriteToFile(path.Join(savePath, strconv.Itoa(run)+"_"+name+".json"), bs)
	}
}
