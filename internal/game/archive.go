package game

import (
	"time"

	"tunetrivia/internal/db"
	"tunetrivia/internal/players"
	"tunetrivia/internal/rooms"
)

func gameResult(room *rooms.Room, scores []players.PlayerScore, endedAt time.Time) db.GameResult {
	results := make([]db.PlayerResult, 0, len(scores))
	for _, s := range scores {
		results = append(results, db.PlayerResult{
			Name:           s.Name,
			Points:         s.Points,
			CorrectAnswers: s.CorrectAnswers,
		})
	}
	return db.GameResult{
		RoomCode: room.Code,
		Host:     room.Host,
		Genre:    room.Settings.Genre,
		Mode:     room.Settings.Mode,
		Rounds:   room.TotalRounds(),
		EndedAt:  endedAt,
		Players:  db.RankPlayers(results),
	}
}
