package server

import (
	"github.com/carwyn987/Drone-Avoidance/types"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	episodes    *prometheus.CounterVec
	crashes     *prometheus.CounterVec
	ticks       *prometheus.CounterVec
	trainFaults *prometheus.CounterVec
	epsilon     *prometheus.GaugeVec
	reward      *prometheus.GaugeVec
	lengths     *prometheus.HistogramVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	labels := []string{"experiment"}
	m := &metrics{
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drone",
			Name:      "episodes_total",
			Help:      "Finished training episodes.",
		}, labels),
		crashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drone",
			Name:      "crashes_total",
			Help:      "Episodes that ended with the drone leaving the canvas or hitting an obstacle.",
		}, labels),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drone",
			Name:      "ticks_total",
			Help:      "Simulated physics ticks.",
		}, labels),
		trainFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drone",
			Name:      "train_faults_total",
			Help:      "Training iterations that failed.",
		}, labels),
		epsilon: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drone",
			Name:      "epsilon",
			Help:      "Exploration rate of the last episode.",
		}, labels),
		reward: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "drone",
			Name:      "episode_reward",
			Help:      "Total reward of the last episode.",
		}, labels),
		lengths: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "drone",
			Name:      "episode_length_ticks",
			Help:      "Ticks survived per episode.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}, labels),
	}
	registry.MustRegister(m.episodes, m.crashes, m.ticks, m.trainFaults, m.epsilon, m.reward, m.lengths)
	return m
}

func (m *metrics) tick(s types.Snapshot) {
	m.ticks.WithLabelValues(s.Experiment).Inc()
}

func (m *metrics) episode(r types.EpisodeResult) {
	m.episodes.WithLabelValues(r.Experiment).Inc()
	if r.Crashed {
		m.crashes.WithLabelValues(r.Experiment).Inc()
	}
	if r.TrainError != "" {
		m.trainFaults.WithLabelValues(r.Experiment).Inc()
	}
	m.epsilon.WithLabelValues(r.Experiment).Set(r.Epsilon)
	m.reward.WithLabelValues(r.Experiment).Set(r.TotalReward)
	m.lengths.WithLabelValues(r.Experiment).Observe(float64(r.Length))
}
