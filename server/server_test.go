package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carwyn987/Drone-Avoidance/drone"
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func snapshot(tick int) types.Snapshot {
	return types.Snapshot{
		Experiment: "dqn",
		Episode:    3,
		Tick:       tick,
		Drone:      drone.State{X: 400, Y: 300 - float64(tick)},
		Action:     drone.ThrustUp.Hash(),
		Reward:     0.5,
		Epsilon:    0.2,
	}
}

func TestHealthAndEmptySnapshot(t *testing.T) {
	s := New(":0", nil)

	w := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/snapshot").Code)
}

func TestSnapshotAndStats(t *testing.T) {
	s := New(":0", nil)
	s.OnTick(snapshot(1))
	s.OnTick(snapshot(2))

	w := get(t, s.Handler(), "/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	got := types.Snapshot{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, snapshot(2), got)

	for i := 0; i < recentEpisodes+5; i++ {
		s.OnEpisodeEnd(types.EpisodeResult{Experiment: "dqn", Episode: i, Length: i * 10, Crashed: i%2 == 0})
	}
	w = get(t, s.Handler(), "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	stats := Stats{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, recentEpisodes+5, stats.Episodes)
	assert.Equal(t, 13, stats.Crashes)
	assert.Equal(t, (recentEpisodes+4)*10, stats.BestLength)
	require.Len(t, stats.Recent, recentEpisodes)
	assert.Equal(t, recentEpisodes+4, stats.Recent[recentEpisodes-1].Episode)
}

func TestMetrics(t *testing.T) {
	s := New(":0", nil)
	s.OnTick(snapshot(1))
	s.OnTick(snapshot(2))
	s.OnEpisodeEnd(types.EpisodeResult{Experiment: "dqn", Length: 2, TotalReward: 1.5, Epsilon: 0.4, Crashed: true, TrainError: "nan loss"})

	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, line := range []string{
		`drone_ticks_total{experiment="dqn"} 2`,
		`drone_episodes_total{experiment="dqn"} 1`,
		`drone_crashes_total{experiment="dqn"} 1`,
		`drone_train_faults_total{experiment="dqn"} 1`,
		`drone_epsilon{experiment="dqn"} 0.4`,
		`drone_episode_reward{experiment="dqn"} 1.5`,
		`drone_episode_length_ticks_count{experiment="dqn"} 1`,
	} {
		assert.Contains(t, body, line)
	}
}

func TestWebsocketReceivesSnapshots(t *testing.T) {
	s := New(":0", nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.size() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.OnTick(snapshot(7))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	got := types.Snapshot{}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, snapshot(7), got)

	conn.Close()
	assert.Eventually(t, func() bool { return s.hub.size() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	s := New(":0", nil)
	c := &client{send: make(chan []byte, 1)}
	s.hub.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.OnTick(snapshot(i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a full client blocked the broadcast")
	}
	assert.Equal(t, 9, s.hub.dropped)
	s.hub.close()
	assert.Zero(t, s.hub.size())
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestObserverDuringExperiment(t *testing.T) {
	env := drone.NewEnvironment(drone.DefaultConfig(), drone.LinearBandReward(drone.Band{Top: 250, Bottom: 350}, 100), drone.DefaultFeatureScale(), nil)
	memory, err := types.NewReplayMemory(100)
	require.NoError(t, err)
	s := New(":0", nil)

	loop := types.DefaultLoopConfig()
	loop.Episodes = 2
	loop.Horizon = 50
	e := types.NewExperiment("hover", holdPolicy{}, env, memory, drone.Band{Top: 250, Bottom: 350})
	_, err = e.Run(&types.RunConfig{Loop: loop, Observers: []types.Observer{s}, Output: types.NewParallelOutput()})
	require.NoError(t, err)

	w := get(t, s.Handler(), "/stats")
	body, _ := io.ReadAll(w.Body)
	stats := Stats{}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 2, stats.Episodes)
	assert.Equal(t, 100, stats.Ticks)
}

// holdPolicy alternates thrust so the drone hovers around the start
type holdPolicy struct{}

func (holdPolicy) NextAction(obs drone.Observation, _ float64) drone.Action {
	if obs.State.VY > 0 {
		return drone.ThrustUp
	}
	return drone.ThrustDown
}
func (holdPolicy) UpdateIteration(int, *types.ReplayMemory, int) error { return nil }
func (holdPolicy) Reset()                                                {}
