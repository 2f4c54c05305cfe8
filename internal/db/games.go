package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PlayerResult struct {
	Name           string `json:"name"`
	Points         int    `json:"points"`
	CorrectAnswers int    `json:"correctAnswers"`
	Rank           int    `json:"rank"`
}

// GameResult is a finished game as archived.
type GameResult struct {
	ID       string         `json:"id"`
	RoomCode string         `json:"roomCode"`
	Host     string         `json:"host"`
	Genre    string         `json:"genre"`
	Mode     string         `json:"mode"`
	Rounds   int            `json:"rounds"`
	EndedAt  time.Time      `json:"endedAt"`
	Players  []PlayerResult `json:"players"`
}

// RankPlayers orders players by points, highest first, and assigns ranks.
// Equal points share a rank.
func RankPlayers(players []PlayerResult) []PlayerResult {
	out := append([]PlayerResult(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// RecordGames writes a batch of results in one transaction.
func (d *DB) RecordGames(ctx context.Context, games []GameResult) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	gameStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO games (id, room_code, host_name, genre, mode, rounds, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("preparing game statement: %w", err)
	}
	defer gameStmt.Close()

	playerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_players (game_id, player_name, points, correct_answers, rank)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_name) DO UPDATE SET points = $3, correct_answers = $4, rank = $5
	`)
	if err != nil {
		return fmt.Errorf("preparing player statement: %w", err)
	}
	defer playerStmt.Close()

	for _, g := range games {
		id := g.ID
		if id == "" {
			id = uuid.NewString()
		}
		endedAt := g.EndedAt
		if endedAt.IsZero() {
			endedAt = time.Now()
		}
		if _, err := gameStmt.ExecContext(ctx, id, g.RoomCode, g.Host, g.Genre, g.Mode, g.Rounds, endedAt); err != nil {
			return fmt.Errorf("recording game %s: %w", g.RoomCode, err)
		}
		for _, p := range RankPlayers(g.Players) {
			if _, err := playerStmt.ExecContext(ctx, id, p.Name, p.Points, p.CorrectAnswers, p.Rank); err != nil {
				return fmt.Errorf("recording player %s: %w", p.Name, err)
			}
		}
	}

	return tx.Commit()
}

// RecentGames returns the latest limit games, newest first, players ranked.
func (d *DB) RecentGames(ctx context.Context, limit int) ([]GameResult, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, room_code, host_name, genre, mode, rounds, ended_at
		FROM games ORDER BY ended_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent games: %w", err)
	}
	defer rows.Close()

	games := make([]GameResult, 0, limit)
	index := make(map[string]int)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var g GameResult
		if err := rows.Scan(&g.ID, &g.RoomCode, &g.Host, &g.Genre, &g.Mode, &g.Rounds, &g.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		g.Players = []PlayerResult{}
		index[g.ID] = len(games)
		ids = append(ids, g.ID)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return games, nil
	}

	prows, err := d.conn.QueryContext(ctx, `
		SELECT game_id, player_name, points, correct_answers, rank
		FROM game_players WHERE game_id = ANY($1::uuid[])
		ORDER BY rank, player_name
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying game players: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var gameID string
		var p PlayerResult
		if err := prows.Scan(&gameID, &p.Name, &p.Points, &p.CorrectAnswers, &p.Rank); err != nil {
			return nil, fmt.Errorf("scanning game player: %w", err)
		}
		if i, ok := index[gameID]; ok {
			games[i].Players = append(games[i].Players, p)
		}
	}
	return games, prows.Err()
}
