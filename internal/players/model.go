package players

// PlayerScore is one player's standing in a room.
type PlayerScore struct {
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Points         int    `json:"points"`
	PreviousPoints int    `json:"previousPoints"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// Delta is the points gained since the last round baseline.
func (p PlayerScore) Delta() int {
	return p.Points - p.PreviousPoints
}
