package types

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, MovingAverage([]float64{1, 2, 3}, 1))
	assert.InDeltaSlice(t, []float64{2, 3, 5, 7}, MovingAverage([]float64{2, 4, 6, 8}, 2), 1e-12)
}

func TestBandOccupancyAnalyzer(t *testing.T) {
	band := drone.Band{Top: 100, Bottom: 200}
	trace := NewTrace()
	trace.Append(drone.State{Y: 150}, drone.ThrustUp, drone.State{Y: 150}, 1)
	trace.Append(drone.State{Y: 150}, drone.ThrustUp, drone.State{Y: 90}, -0.1)
	trace.Append(drone.State{Y: 90}, drone.ThrustDown, drone.State{Y: 100}, 1)
	trace.Append(drone.State{Y: 100}, drone.ThrustDown, drone.State{Y: 250}, -0.5)

	a := BandOccupancyAnalyzer(band)
	a.Analyze(0, 0, "x", trace)
	a.Analyze(0, 1, "x", NewTrace())
	assert.Equal(t, []float64{0.5, 0}, a.DataSet())

	r := TotalRewardAnalyzer()
	r.Analyze(0, 0, "x", trace)
	assert.InDeltaSlice(t, []float64{1.4}, r.DataSet().([]float64), 1e-12)
	r.Reset()
	assert.Empty(t, r.DataSet())

	_, action, next, reward, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, drone.ThrustDown, action)
	assert.Equal(t, 250.0, next.Y)
	assert.Equal(t, -0.5, reward)
	_, _, _, _, ok = NewTrace().Last()
	assert.False(t, ok)
}

func TestComparisonWritesPlots(t *testing.T) {
	dir := t.TempDir()
	loop := testLoop(3)
	loop.Horizon = 20

	c := NewComparison(&ComparisonConfig{
		Runs:       1,
		Loop:       loop,
		RecordPath: dir,
	})
	c.AddExperiment(newTestExperiment(t, &upPolicy{}))
	second := newTestExperiment(t, &upPolicy{})
	second.Name = "up2"
	c.AddExperiment(second)
	c.AddAnalysis("episode_length", EpisodeLengthAnalyzer(), SeriesPlotter(filepath.Join(dir, "plots"), "episode_length", "Ticks", 2))
	c.AddAnalysis("total_reward", TotalRewardAnalyzer(), JSONDumper(dir, "total_reward"))

	datasets, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets["episode_length"], 2)
	assert.Equal(t, []float64{20, 20, 20}, datasets["episode_length"][1])

	_, err = os.Stat(filepath.Join(dir, "plots", "0_episode_length.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "comparison_config.yaml"))
	assert.NoError(t, err)

	bs, err := os.ReadFile(filepath.Join(dir, "0_total_reward.json"))
	require.NoError(t, err)
	var dump map[string][]float64
	require.NoError(t, json.Unmarshal(bs, &dump))
	assert.Len(t, dump["up2"], 3)
}

func TestChainComparators(t *testing.T) {
	calls := 0
	count := func(int, []string, []DataSet) error {
		calls++
		return nil
	}
	fail := func(int, []string, []DataSet) error {
		calls++
		return errors.New("boom")
	}
	err := ChainComparators(count, fail, count)(0, nil, nil)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 3, calls)
	assert.NoError(t, NoopComparator()(0, nil, nil))
}
