package main

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
	PlayerRandom
)

type GameSettings struct {
	Rows       int        `json:"rows"`
	Cols       int        `json:"cols"`
	WinLength  int        `json:"win_length"`
	FirstType  PlayerType `json:"-"`
	SecondType PlayerType `json:"-"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		Rows:       6,
		Cols:       7,
		WinLength:  4,
		FirstType:  PlayerHuman,
		SecondType: PlayerAI,
	}
}

func (s GameSettings) valid() bool {
	return s.Rows > 0 && s.Cols > 0 && s.WinLength > 0 && s.Rows <= 32 && s.Cols <= 32
}
