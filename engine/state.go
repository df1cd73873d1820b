package engine

import "time"

// State is the telemetry carried from one turn to the next.
type State struct {
	Depth            int           `json:"depth"`
	NodeCounter      int64         `json:"node_counter"`
	NodesAverage     int64         `json:"nodes_average"`
	AlphaBetaStarted bool          `json:"alphabeta_started"`
	LastElapsed      time.Duration `json:"last_elapsed"` // negative until a turn has been timed
	TurnStart        time.Time     `json:"turn_start"`
	Reused           bool          `json:"reused"` // last turn started from the previous turn's subtree
}

func NewState() State {
	return State{Depth: DefaultDepth, LastElapsed: -1}
}
