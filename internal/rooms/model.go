package rooms

import (
	"slices"
	"time"

	"tunetrivia/internal/gamedata"
	"tunetrivia/internal/players"
)

// Room is one live game. It is not safe for concurrent use; callers
// serialize access to it together with the Store that holds it.
type Room struct {
	Code       string
	Settings   gamedata.Settings
	Host       string
	HostConnID string
	CreatedAt  time.Time

	CurrentRound     int
	IsRoundActive    bool
	IsIntermission   bool
	RoundStartTime   int64 // unix ms, 0 until the first round starts
	CurrentRoundData *gamedata.RoundData
	GameActive       bool

	players  []string
	scores   *players.Ledger
	finished map[string]struct{}
}

func newRoom(code string, settings gamedata.Settings) *Room {
	return &Room{
		Code:      code,
		Settings:  settings,
		CreatedAt: time.Now(),
		scores:    players.NewLedger(),
		finished:  make(map[string]struct{}),
	}
}

func (r *Room) MaxPlayers() int { return r.Settings.MaxPlayers }

// Players returns the roster in join order.
func (r *Room) Players() []string {
	return slices.Clone(r.players)
}

func (r *Room) Has(name string) bool {
	return slices.Contains(r.players, name)
}

func (r *Room) Empty() bool { return len(r.players) == 0 }

func (r *Room) Scores() []players.PlayerScore {
	return r.scores.List()
}

func (r *Room) Score(name string) (players.PlayerScore, bool) {
	return r.scores.Get(name)
}

// Join adds name to the roster with a zeroed score. The first player into a
// hostless room becomes its host.
func (r *Room) Join(name, avatar string) error {
	if r.Has(name) {
		return ErrNameTaken
	}
	if len(r.players) >= r.Settings.MaxPlayers {
		return ErrRoomFull
	}
	r.players = append(r.players, name)
	r.scores.Add(name, avatar)
	if r.Host == "" {
		r.Host = name
	}
	return nil
}

// Leave removes name everywhere. When the host leaves a non-empty room the
// earliest remaining player takes over and is returned as newHost; the
// caller must re-resolve HostConnID.
func (r *Room) Leave(name string) (newHost string, err error) {
	i := slices.Index(r.players, name)
	if i < 0 {
		return "", ErrNotInRoom
	}
	r.players = slices.Delete(r.players, i, i+1)
	r.scores.Remove(name)
	delete(r.finished, name)

	if len(r.players) == 0 {
		r.Host, r.HostConnID = "", ""
		return "", nil
	}
	// a departure can complete the quorum
	if r.IsRoundActive && r.Remaining() == 0 {
		r.enterIntermission()
	}
	if name == r.Host {
		r.Host = r.players[0]
		r.HostConnID = ""
		newHost = r.Host
	}
	return newHost, nil
}

func (r *Room) SetScore(name string, points, correctAnswers int) (players.PlayerScore, error) {
	p, ok := r.scores.SetScore(name, points, correctAnswers)
	if !ok {
		return players.PlayerScore{}, ErrNotInRoom
	}
	return p, nil
}

// StartGame leaves the lobby and waits for the host to push round one.
func (r *Room) StartGame() {
	r.GameActive = true
	r.CurrentRound = 1
	r.IsRoundActive = false
	r.IsIntermission = true
	clear(r.finished)
}

// StartRound baselines every score, clears the finished set and stores data
// for late joiners. nowMS stamps the round when data carries no start time.
func (r *Room) StartRound(data gamedata.RoundData, nowMS int64) {
	r.scores.Baseline()
	if !r.GameActive {
		r.GameActive = true
	}
	if r.CurrentRound < 1 {
		r.CurrentRound = 1
	}
	r.IsRoundActive = true
	r.IsIntermission = false
	r.RoundStartTime = nowMS
	if data.StartTime > 0 {
		r.RoundStartTime = data.StartTime
	}
	data.StartTime = r.RoundStartTime
	clear(r.finished)

	stored := data.Clone()
	r.CurrentRoundData = &stored
}

// MarkFinished records name as done with the current round and returns how
// many players are still playing.
func (r *Room) MarkFinished(name string) (int, error) {
	if !r.Has(name) {
		return r.Remaining(), ErrNotInRoom
	}
	r.finished[name] = struct{}{}
	remaining := r.Remaining()
	if remaining == 0 && r.IsRoundActive {
		r.enterIntermission()
	}
	return remaining, nil
}

// SkipRound marks every current player finished.
func (r *Room) SkipRound() {
	for _, name := range r.players {
		r.finished[name] = struct{}{}
	}
	r.enterIntermission()
}

// ContinueRound moves to nextRound and re-activates the round. The round
// counter never goes backwards. totalRounds > 0 updates the configured count.
func (r *Room) ContinueRound(nextRound, totalRounds int) {
	if nextRound > r.CurrentRound {
		r.CurrentRound = nextRound
	}
	if totalRounds > 0 {
		r.Settings.Rounds = totalRounds
	}
	r.GameActive = true
	r.IsRoundActive = true
	r.IsIntermission = false
	clear(r.finished)
}

func (r *Room) Remaining() int {
	return len(r.players) - len(r.finished)
}

func (r *Room) Finished() []string {
	out := make([]string, 0, len(r.finished))
	for _, name := range r.players {
		if _, ok := r.finished[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (r *Room) Phase() gamedata.Phase {
	switch {
	case !r.GameActive:
		return gamedata.PhaseLobby
	case r.IsRoundActive:
		return gamedata.PhaseRound
	default:
		return gamedata.PhaseIntermission
	}
}

func (r *Room) TotalRounds() int {
	if r.Settings.Rounds <= 0 {
		return gamedata.DefaultRounds
	}
	return r.Settings.Rounds
}

func (r *Room) enterIntermission() {
	r.IsRoundActive = false
	r.IsIntermission = true
}
