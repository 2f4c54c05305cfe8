package game

import (
	"tunetrivia/internal/gamedata"
	"tunetrivia/internal/players"
	"tunetrivia/internal/rooms"
)

// Outbound payloads. Field names are the wire names.

type roomCreated struct {
	Code     string            `json:"code"`
	Host     string            `json:"host"`
	Settings gamedata.Settings `json:"settings"`
}

type joinSuccess struct {
	Code         string            `json:"code"`
	PlayerName   string            `json:"playerName"`
	Host         string            `json:"host"`
	IsHost       bool              `json:"isHost"`
	Players      []string          `json:"players"`
	Settings     gamedata.Settings `json:"settings"`
	CurrentRound int               `json:"currentRound"`
	GameActive   bool              `json:"gameActive"`
}

type roomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinActiveGame struct {
	Code           string              `json:"code"`
	CurrentRound   int                 `json:"currentRound"`
	TotalRounds    int                 `json:"totalRounds"`
	TimeLimit      int                 `json:"timeLimit"`
	IsRoundActive  bool                `json:"isRoundActive"`
	RoundStartTime int64               `json:"roundStartTime"`
	Round          *gamedata.RoundData `json:"round"`
}

type playersUpdated struct {
	Code    string   `json:"code"`
	Host    string   `json:"host"`
	Players []string `json:"players"`
}

type scoreUpdate struct {
	Code   string              `json:"code"`
	Player players.PlayerScore `json:"player"`
}

type roomScores struct {
	Code   string      `json:"code"`
	Scores []scoreView `json:"scores"`
}

type scoreView struct {
	players.PlayerScore
	RoundDelta int `json:"roundDelta"`
}

type totalRounds struct {
	Code        string `json:"code"`
	TotalRounds int    `json:"totalRounds"`
}

type gameStarted struct {
	Code         string            `json:"code"`
	CurrentRound int               `json:"currentRound"`
	TotalRounds  int               `json:"totalRounds"`
	Settings     gamedata.Settings `json:"settings"`
}

// roundView is a stored round merged with the room's authoritative counters.
type roundView struct {
	gamedata.RoundData
	Code           string `json:"code"`
	CurrentRound   int    `json:"currentRound"`
	RoundStartTime int64  `json:"roundStartTime"`
	IsRoundActive  bool   `json:"isRoundActive"`
	TimeLimit      int    `json:"timeLimit"`
}

type currentRound struct {
	Code  string     `json:"code"`
	Round *roundView `json:"round"`
}

type finishedUpdate struct {
	Code      string   `json:"code"`
	Remaining int      `json:"remaining"`
	Total     int      `json:"total"`
	Finished  []string `json:"finished"`
}

type skipped struct {
	Code      string `json:"code"`
	Remaining int    `json:"remaining"`
}

type continueRound struct {
	Code           string            `json:"code"`
	CurrentRound   int               `json:"currentRound"`
	TotalRounds    int               `json:"totalRounds"`
	IsRoundActive  bool              `json:"isRoundActive"`
	IsIntermission bool              `json:"isIntermission"`
	Settings       gamedata.Settings `json:"settings"`
}

type endGame struct {
	Code   string      `json:"code"`
	Scores []scoreView `json:"scores"`
}

type playerLeft struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName"`
}

type hostChanged struct {
	Code    string `json:"code"`
	NewHost string `json:"newHost"`
}

// Summary is a read-only snapshot of a room for the HTTP API.
type Summary struct {
	Code          string         `json:"code"`
	Players       []string       `json:"players"`
	Host          string         `json:"host"`
	CurrentRound  int            `json:"currentRound"`
	TotalRounds   int            `json:"totalRounds"`
	GameActive    bool           `json:"gameActive"`
	IsRoundActive bool           `json:"isRoundActive"`
	MaxPlayers    int            `json:"maxPlayers"`
	Phase         gamedata.Phase `json:"phase"`
	Connections   int            `json:"connections"`
}

func viewRound(r *rooms.Room) *roundView {
	if r.CurrentRoundData == nil {
		return nil
	}
	return &roundView{
		RoundData:      r.CurrentRoundData.Clone(),
		Code:           r.Code,
		CurrentRound:   r.CurrentRound,
		RoundStartTime: r.RoundStartTime,
		IsRoundActive:  r.IsRoundActive,
		TimeLimit:      r.Settings.TimeLimit,
	}
}

func viewScores(scores []players.PlayerScore) []scoreView {
	out := make([]scoreView, len(scores))
	for i, p := range scores {
		out[i] = scoreView{PlayerScore: p, RoundDelta: p.Delta()}
	}
	return out
}

func summarize(r *rooms.Room) Summary {
	return Summary{
		Code:          r.Code,
		Players:       r.Players(),
		Host:          r.Host,
		CurrentRound:  r.CurrentRound,
		TotalRounds:   r.TotalRounds(),
		GameActive:    r.GameActive,
		IsRoundActive: r.IsRoundActive,
		MaxPlayers:    r.MaxPlayers(),
		Phase:         r.Phase(),
	}
}
