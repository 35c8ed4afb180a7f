package ws

// client → server
type Inbound struct {
	Type string `json:"type"`
	Game string `json:"game,omitempty"` // play
	Text string `json:"text,omitempty"` // text
	Data string `json:"data,omitempty"` // click
}

// server → client
type Outbound struct {
	Type   string     `json:"type"`
	Ref    int64      `json:"ref,omitempty"`
	Text   string     `json:"text,omitempty"`
	Format string     `json:"format,omitempty"`
	Grid   [][]Button `json:"grid,omitempty"`
	Games  []GameInfo `json:"games,omitempty"`
	Error  string     `json:"error,omitempty"`
}

type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

type GameInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
