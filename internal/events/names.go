package events

// Client to server.
const (
	CreateRoom           = "create-room"
	Join                 = "join"
	GetRoomPlayersScores = "get-room-players-scores"
	GetTotalRounds       = "get-total-rounds"
	UpdateScore          = "update-score"
	StartGame            = "start-game"
	HostStartRound       = "host-start-round"
	PlayerFinishedRound  = "player-finished-round"
	HostSkipRound        = "host-skip-round"
	HostContinueRound    = "host-continue-round"
	HostEndGame          = "host-end-game"
	GetCurrentRound      = "get-current-round"
	LeaveRoom            = "leaveRoom"
	Disconnect           = "disconnect"
)

// Server to client.
const (
	RoomCreated           = "room-created"
	JoinSuccess           = "join-success"
	JoinError             = "join-error"
	JoinActiveGame        = "join-active-game"
	PlayersUpdated        = "players-updated"
	ScoreUpdate           = "score-update"
	RoomPlayersScores     = "room-players-scores"
	TotalRounds           = "total-rounds"
	GameStarted           = "game-started"
	RoundStart            = "round-start"
	PlayerFinishedUpdated = "player-finished-updated"
	HostSkippedRound      = "host-skipped-round"
	ContinueToNextRound   = "continue-to-next-round"
	NavigateToEndGame     = "navigate-to-end-game"
	PlayerLeft            = "playerLeft"
	HostChanged           = "hostChanged"
	CurrentRound          = "current-round"
	RoomError             = "room-error"
)
