package game

import (
	"errors"

	"github.com/rs/zerolog/log"

	"tunetrivia/internal/broadcast"
	"tunetrivia/internal/events"
	"tunetrivia/internal/gamedata"
	"tunetrivia/internal/metrics"
	"tunetrivia/internal/rooms"
	"tunetrivia/internal/utility"
)

func (c *Coordinator) createRoom(connID string, req *events.CreateRoomRequest) {
	avatar := req.Avatar
	if avatar == "" {
		avatar = utility.RandomColorHex()
	}

	room, err := c.rooms.Create(req.Code, req.Settings, req.Host, avatar)
	if err != nil {
		reason := metrics.ReasonInvalid
		if errors.Is(err, rooms.ErrRoomExists) {
			reason = metrics.ReasonRoomExists
		}
		log.Warn().Err(err).Str("room", req.Code).Str("conn", connID).Msg("create room failed")
		c.reject(connID, req.Code, reason, err.Error())
		return
	}

	// a connection holds one seat and one unjoined room at a time
	c.leaveLocked(connID)
	c.abandonCreatedLocked(connID)

	c.out.Subscribe(connID, room.Code)
	if room.Has(req.Host) {
		room.HostConnID = connID
		c.sessions.Bind(connID, room.Code, req.Host)
	} else {
		c.pending[room.Code] = pendingHost{connID: connID, name: req.Host}
	}
	c.metrics.SetRooms(c.rooms.Count())

	log.Info().
		Str("room", room.Code).
		Str("host", req.Host).
		Int("maxPlayers", room.MaxPlayers()).
		Msg("room created")

	c.out.ToConn(connID, broadcast.Message{
		Event: events.RoomCreated,
		Data:  roomCreated{Code: room.Code, Host: req.Host, Settings: room.Settings},
	})
	if !room.Empty() {
		c.broadcastRoster(room)
	}
}

func (c *Coordinator) join(connID string, req *events.JoinRequest) {
	code := req.Room()
	room, err := c.rooms.Get(code)
	if err != nil {
		c.joinError(connID, code, err)
		return
	}

	if s, ok := c.sessions.Lookup(connID); ok {
		if s.RoomCode == code && s.PlayerName == req.PlayerName {
			c.sendJoinSuccess(connID, room, req.PlayerName)
			return
		}
		c.leaveLocked(connID)
		// leaving may have emptied and removed the room
		if room, err = c.rooms.Get(code); err != nil {
			c.joinError(connID, code, err)
			return
		}
	}

	avatar := req.Avatar
	if avatar == "" {
		avatar = utility.RandomColorHex()
	}
	if err := room.Join(req.PlayerName, avatar); err != nil {
		c.joinError(connID, code, err)
		return
	}

	c.sessions.Bind(connID, code, req.PlayerName)
	c.out.Subscribe(connID, code)
	if req.PlayerName == room.Host {
		room.HostConnID = connID
	}
	if p, ok := c.pending[code]; ok && p.connID == connID {
		// the creator takes the host seat under the name it joins with
		delete(c.pending, code)
		if room.Host != req.PlayerName {
			c.transferHostLocked(room, req.PlayerName)
		}
	}

	log.Info().Str("room", code).Str("player", req.PlayerName).Str("conn", connID).Msg("player joined")

	c.sendJoinSuccess(connID, room, req.PlayerName)
	if room.IsRoundActive {
		c.out.ToConn(connID, broadcast.Message{
			Event: events.JoinActiveGame,
			Data: joinActiveGame{
				Code:           code,
				CurrentRound:   room.CurrentRound,
				TotalRounds:    room.TotalRounds(),
				TimeLimit:      room.Settings.TimeLimit,
				IsRoundActive:  room.IsRoundActive,
				RoundStartTime: room.RoundStartTime,
				Round:          cloneRound(room.CurrentRoundData),
			},
		})
	}
	c.broadcastRoster(room)
}

func (c *Coordinator) joinError(connID, code string, err error) {
	reason, message := joinErrorMessage(err)
	c.metrics.Rejected(reason)
	log.Info().Str("room", code).Str("conn", connID).Str("reason", reason).Msg("join rejected")
	c.out.ToConn(connID, broadcast.Message{
		Event: events.JoinError,
		Data:  roomError{Code: code, Message: message},
	})
}

func (c *Coordinator) sendJoinSuccess(connID string, room *rooms.Room, name string) {
	c.out.ToConn(connID, broadcast.Message{
		Event: events.JoinSuccess,
		Data: joinSuccess{
			Code:         room.Code,
			PlayerName:   name,
			Host:         room.Host,
			IsHost:       name == room.Host,
			Players:      room.Players(),
			Settings:     room.Settings,
			CurrentRound: room.CurrentRound,
			GameActive:   room.GameActive,
		},
	})
}

func (c *Coordinator) getRoomPlayersScores(connID string, req *events.GetRoomPlayersScoresRequest) {
	data := roomScores{Code: req.Room(), Scores: []scoreView{}}
	if room, err := c.rooms.Get(req.Room()); err == nil {
		data.Scores = viewScores(room.Scores())
	}
	c.out.ToConn(connID, broadcast.Message{Event: events.RoomPlayersScores, Data: data})
}

func (c *Coordinator) getTotalRounds(connID string, req *events.GetTotalRoundsRequest) {
	data := totalRounds{Code: req.Room(), TotalRounds: gamedata.DefaultRounds}
	if room, err := c.rooms.Get(req.Room()); err == nil {
		data.TotalRounds = room.TotalRounds()
	}
	c.out.ToConn(connID, broadcast.Message{Event: events.TotalRounds, Data: data})
}

func (c *Coordinator) updateScore(connID string, req *events.UpdateScoreRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok {
		return
	}
	score, err := room.SetScore(req.PlayerName, req.Points, req.CorrectAnswers)
	if err != nil {
		c.reject(connID, room.Code, metrics.ReasonInvalid, "Player not in room")
		return
	}

	c.out.ToRoomExcept(room.Code, connID, broadcast.Message{
		Event: events.ScoreUpdate,
		Data:  scoreUpdate{Code: room.Code, Player: score},
	})
	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.RoomPlayersScores,
		Data:  roomScores{Code: room.Code, Scores: viewScores(room.Scores())},
	})
}

func (c *Coordinator) startGame(connID string, req *events.StartGameRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok || !c.authorizeHost(connID, room, req.Event(), "") {
		return
	}

	room.StartGame()
	log.Info().Str("room", room.Code).Int("players", len(room.Players())).Msg("game started")

	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.GameStarted,
		Data: gameStarted{
			Code:         room.Code,
			CurrentRound: room.CurrentRound,
			TotalRounds:  room.TotalRounds(),
			Settings:     room.Settings,
		},
	})
}

func (c *Coordinator) hostStartRound(connID string, req *events.HostStartRoundRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok || !c.authorizeHost(connID, room, req.Event(), "") {
		return
	}

	room.StartRound(req.RoundData, c.nowMS())
	log.Info().Str("room", room.Code).Int("round", room.CurrentRound).Msg("round started")

	c.out.ToRoom(room.Code, broadcast.Message{Event: events.RoundStart, Data: viewRound(room)})
}

func (c *Coordinator) playerFinishedRound(connID string, req *events.PlayerFinishedRoundRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok {
		return
	}
	if _, err := room.MarkFinished(req.PlayerName); err != nil {
		c.reject(connID, room.Code, metrics.ReasonInvalid, "Player not in room")
		return
	}
	c.broadcastRemaining(room)
}

func (c *Coordinator) hostSkipRound(connID string, req *events.HostSkipRoundRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok || !c.authorizeHost(connID, room, req.Event(), req.PlayerName) {
		return
	}

	room.SkipRound()
	log.Info().Str("room", room.Code).Int("round", room.CurrentRound).Msg("round skipped")

	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.HostSkippedRound,
		Data:  skipped{Code: room.Code, Remaining: room.Remaining()},
	})
	c.broadcastRemaining(room)
}

func (c *Coordinator) hostContinueRound(connID string, req *events.HostContinueRoundRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok || !c.authorizeHost(connID, room, req.Event(), "") {
		return
	}

	room.ContinueRound(req.NextRound, req.TotalRounds)
	log.Info().Str("room", room.Code).Int("round", room.CurrentRound).Msg("continuing to next round")

	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.ContinueToNextRound,
		Data: continueRound{
			Code:           room.Code,
			CurrentRound:   room.CurrentRound,
			TotalRounds:    room.TotalRounds(),
			IsRoundActive:  room.IsRoundActive,
			IsIntermission: room.IsIntermission,
			Settings:       room.Settings,
		},
	})
}

func (c *Coordinator) hostEndGame(connID string, req *events.HostEndGameRequest) {
	room, ok := c.lookup(connID, req.Room())
	if !ok || !c.authorizeHost(connID, room, req.Event(), "") {
		return
	}

	scores := room.Scores()
	log.Info().Str("room", room.Code).Int("players", len(scores)).Msg("game ended")

	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.NavigateToEndGame,
		Data:  endGame{Code: room.Code, Scores: viewScores(scores)},
	})

	if c.archive != nil {
		c.archive.Enqueue(gameResult(room, scores, c.now()))
	}
}

func (c *Coordinator) getCurrentRound(connID string, req *events.GetCurrentRoundRequest) {
	data := currentRound{Code: req.Room()}
	if room, err := c.rooms.Get(req.Room()); err == nil {
		data.Round = viewRound(room)
	}
	c.out.ToConn(connID, broadcast.Message{Event: events.CurrentRound, Data: data})
}

func (c *Coordinator) leaveRoom(connID string) {
	c.leaveLocked(connID)
	c.abandonCreatedLocked(connID)
	c.out.Unsubscribe(connID)
	c.metrics.SetRooms(c.rooms.Count())
}

// leaveLocked removes the seat held by connID, if any. Only the first call
// for a seat has an effect.
func (c *Coordinator) leaveLocked(connID string) {
	s, ok := c.sessions.Remove(connID)
	if !ok {
		return
	}
	c.out.Unsubscribe(connID)

	room, err := c.rooms.Get(s.RoomCode)
	if err != nil {
		return
	}
	newHost, err := room.Leave(s.PlayerName)
	if err != nil {
		return
	}
	log.Info().Str("room", room.Code).Str("player", s.PlayerName).Msg("player left")

	if room.Empty() {
		c.deleteRoomLocked(room.Code)
		return
	}

	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.PlayerLeft,
		Data:  playerLeft{Code: room.Code, PlayerName: s.PlayerName},
	})
	if newHost != "" {
		c.transferHostLocked(room, newHost)
	}
	c.broadcastRoster(room)
	c.broadcastRemaining(room)
}

// abandonCreatedLocked drops connID's claim on rooms it created but never
// joined. Rooms nobody else joined either are closed.
func (c *Coordinator) abandonCreatedLocked(connID string) {
	for code, p := range c.pending {
		if p.connID != connID {
			continue
		}
		delete(c.pending, code)

		if room, err := c.rooms.Get(code); err == nil && room.Empty() {
			c.deleteRoomLocked(code)
		}
	}
}

func (c *Coordinator) transferHostLocked(room *rooms.Room, newHost string) {
	room.Host = newHost
	room.HostConnID = ""
	if id, ok := c.sessions.ConnFor(room.Code, newHost); ok {
		room.HostConnID = id
	}
	log.Info().Str("room", room.Code).Str("host", newHost).Msg("host changed")
	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.HostChanged,
		Data:  hostChanged{Code: room.Code, NewHost: newHost},
	})
}

func (c *Coordinator) deleteRoomLocked(code string) {
	c.rooms.Delete(code)
	c.out.CloseRoom(code)
	delete(c.pending, code)
	c.metrics.SetRooms(c.rooms.Count())
	log.Info().Str("room", code).Msg("room closed")
}

func (c *Coordinator) broadcastRoster(room *rooms.Room) {
	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.PlayersUpdated,
		Data:  playersUpdated{Code: room.Code, Host: room.Host, Players: room.Players()},
	})
	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.RoomPlayersScores,
		Data:  roomScores{Code: room.Code, Scores: viewScores(room.Scores())},
	})
}

func (c *Coordinator) broadcastRemaining(room *rooms.Room) {
	c.out.ToRoom(room.Code, broadcast.Message{
		Event: events.PlayerFinishedUpdated,
		Data: finishedUpdate{
			Code:      room.Code,
			Remaining: room.Remaining(),
			Total:     len(room.Players()),
			Finished:  room.Finished(),
		},
	})
}

func cloneRound(rd *gamedata.RoundData) *gamedata.RoundData {
	if rd == nil {
		return nil
	}
	cp := rd.Clone()
	return &cp
}
