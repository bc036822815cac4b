package policies

import (
	"encoding/json"
	"math"
)

// QTable maps a state key to per action values. Reads never add entries,
// unknown pairs read as the given default.
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

func (q *QTable) Get(state, action string, def float64) float64 {
	if val, ok := q.table[state][action]; ok {
		return val
	}
	return def
}

func (q *QTable) Set(state, action string, val float64) {
	actions, ok := q.table[state]
	if !ok {
		actions = make(map[string]float64)
		q.table[state] = actions
	}
	actions[action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// Len is the number of visited states
func (q *QTable) Len() int {
	return len(q.table)
}

// MaxAmong returns the best of the given actions, the first one wins ties
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	best := ""
	bestVal := math.Inf(-1)
	for _, a := range actions {
		if val := q.Get(state, a, def); val > bestVal {
			best, bestVal = a, val
		}
	}
	return best, bestVal
}

func (q *QTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.table)
}

func (q *QTable) UnmarshalJSON(b []byte) error {
	table := make(map[string]map[string]float64)
	if err := json.Unmarshal(b, &table); err != nil {
		return err
	}
	q.table = table
	return nil
}
