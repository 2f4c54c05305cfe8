package events

import "tunetrivia/internal/gamedata"

// Request is a decoded, validated client event.
type Request interface {
	Event() string
	Room() string
}

// RoomRef is embedded by every request addressed to a room.
type RoomRef struct {
	Code string `json:"code" validate:"required,max=16"`
}

func (r RoomRef) Room() string { return r.Code }

func (r *RoomRef) normalizeCode(f func(string) string) { r.Code = f(r.Code) }

type CreateRoomRequest struct {
	Code     string            `json:"code" validate:"max=16"`
	Settings gamedata.Settings `json:"settings"`
	Host     string            `json:"host" validate:"required,max=32"`
	Avatar   string            `json:"avatar" validate:"max=64"`
}

func (CreateRoomRequest) Event() string { return CreateRoom }

func (r CreateRoomRequest) Room() string { return r.Code }

func (r *CreateRoomRequest) normalizeCode(f func(string) string) { r.Code = f(r.Code) }

type JoinRequest struct {
	RoomRef
	PlayerName string `json:"playerName" validate:"required,max=32"`
	Avatar     string `json:"avatar" validate:"max=64"`
}

func (JoinRequest) Event() string { return Join }

type GetRoomPlayersScoresRequest struct{ RoomRef }

func (GetRoomPlayersScoresRequest) Event() string { return GetRoomPlayersScores }

type GetTotalRoundsRequest struct{ RoomRef }

func (GetTotalRoundsRequest) Event() string { return GetTotalRounds }

type UpdateScoreRequest struct {
	RoomRef
	PlayerName     string `json:"playerName" validate:"required,max=32"`
	Points         int    `json:"points" validate:"min=0"`
	CorrectAnswers int    `json:"correctAnswers" validate:"min=0"`
}

func (UpdateScoreRequest) Event() string { return UpdateScore }

type StartGameRequest struct{ RoomRef }

func (StartGameRequest) Event() string { return StartGame }

type HostStartRoundRequest struct {
	RoomRef
	gamedata.RoundData
}

func (HostStartRoundRequest) Event() string { return HostStartRound }

type PlayerFinishedRoundRequest struct {
	RoomRef
	PlayerName string `json:"playerName" validate:"required,max=32"`
}

func (PlayerFinishedRoundRequest) Event() string { return PlayerFinishedRound }

// HostSkipRoundRequest may name the host so a reconnecting host whose new
// connection is not yet bound can still skip.
type HostSkipRoundRequest struct {
	RoomRef
	PlayerName string `json:"playerName" validate:"max=32"`
}

func (HostSkipRoundRequest) Event() string { return HostSkipRound }

type HostContinueRoundRequest struct {
	RoomRef
	NextRound   int `json:"nextRound" validate:"min=1"`
	TotalRounds int `json:"totalRounds" validate:"min=0,max=50"`
}

func (HostContinueRoundRequest) Event() string { return HostContinueRound }

type HostEndGameRequest struct{ RoomRef }

func (HostEndGameRequest) Event() string { return HostEndGame }

type GetCurrentRoundRequest struct{ RoomRef }

func (GetCurrentRoundRequest) Event() string { return GetCurrentRound }

// LeaveRoomRequest carries no required fields; the session decides the room.
type LeaveRoomRequest struct {
	Code string `json:"code" validate:"max=16"`
}

func (LeaveRoomRequest) Event() string { return LeaveRoom }

func (r LeaveRoomRequest) Room() string { return r.Code }

func (r *LeaveRoomRequest) normalizeCode(f func(string) string) { r.Code = f(r.Code) }
