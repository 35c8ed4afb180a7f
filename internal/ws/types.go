package ws

const (
	// client - server
	MsgPlay  = "play"
	MsgClick = "click"
	MsgStop  = "stop"
	MsgPing  = "ping"

	// both directions
	MsgText = "text"

	// server - client
	MsgReady = "ready"
	MsgGames = "games"
	MsgGrid  = "grid"
	MsgEdit  = "edit"
	MsgPong  = "pong"
	MsgError = "error"
)

const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
)
