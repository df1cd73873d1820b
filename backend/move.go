package main

// Move is a dropped piece. Row is filled in once gravity has been applied.
type Move struct {
	Col   int   `json:"col"`
	Row   int   `json:"row"`
	Depth int   `json:"depth,omitempty"`
	Nodes int64 `json:"nodes,omitempty"`
}

func (m Move) IsValid(cols int) bool {
	return m.Col >= 0 && m.Col < cols
}
