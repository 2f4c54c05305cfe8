package gamedata

import "tunetrivia/internal/catalog"

type Phase string

const (
	PhaseLobby        = Phase("lobby")
	PhaseIntermission = Phase("intermission")
	PhaseRound        = Phase("round")
)

const (
	MinPlayers    = 1
	MaxPlayers    = 8
	DefaultRounds = 5
)

// Settings is the game configuration captured when a room is created.
type Settings struct {
	Genre      string `json:"genre" validate:"max=64"`
	Mode       string `json:"mode" validate:"max=32"`
	Rounds     int    `json:"rounds" validate:"min=0,max=50"`
	TimeLimit  int    `json:"timeLimit" validate:"min=0,max=600"` // seconds per round
	MaxPlayers int    `json:"maxPlayers" validate:"min=0,max=8"`
}

// Config holds the server-side fallbacks applied to incomplete settings.
type Config struct {
	MaxPlayers int
	Rounds     int
	TimeLimit  int // seconds
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers: MaxPlayers,
		Rounds:     DefaultRounds,
		TimeLimit:  30,
	}
}

// Normalize fills zero values from the config and clamps capacity to 1..8.
func (c Config) Normalize(s Settings) Settings {
	if s.MaxPlayers <= 0 {
		s.MaxPlayers = c.MaxPlayers
	}
	if s.MaxPlayers < MinPlayers {
		s.MaxPlayers = MinPlayers
	}
	if s.MaxPlayers > MaxPlayers {
		s.MaxPlayers = MaxPlayers
	}
	if s.Rounds <= 0 {
		s.Rounds = c.Rounds
	}
	if s.Rounds <= 0 {
		s.Rounds = DefaultRounds
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = c.TimeLimit
	}
	return s
}

// RoundData is the full payload the host pushes for one round. It is kept on
// the room so late joiners can rebuild the same round.
type RoundData struct {
	Song        catalog.Track   `json:"song"`
	Choices     []catalog.Track `json:"choices"`
	Answer      string          `json:"answer"`
	StartTime   int64           `json:"startTime"`
	SongIndex   int             `json:"songIndex"`
	MultiSongs  []catalog.Track `json:"multiSongs,omitempty"`
	ShuffleSeed int64           `json:"shuffleSeed"`
}

// Clone returns a copy that shares no slices with rd.
func (rd RoundData) Clone() RoundData {
	out := rd
	out.Song = rd.Song.Clone()
	out.Choices = cloneTracks(rd.Choices)
	out.MultiSongs = cloneTracks(rd.MultiSongs)
	return out
}

func cloneTracks(in []catalog.Track) []catalog.Track {
	if in == nil {
		return nil
	}
	out := make([]catalog.Track, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
