package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	ctx := context.Background()
	database, err := Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx))
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM game_players")
		database.conn.Exec("DELETE FROM games")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	assert.NoError(t, database.Ping(context.Background()))
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// re-running is harmless
	require.NoError(t, database.Migrate(context.Background()))

	for _, table := range []string{"games", "game_players"} {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		require.NoError(t, err, table)
		assert.True(t, exists, "table %s does not exist", table)
	}
}

func TestRecordGames_RecentGames(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	older := GameResult{
		RoomCode: "AB12", Host: "Alice", Genre: "pop", Rounds: 5,
		EndedAt: time.Now().Add(-time.Hour),
		Players: []PlayerResult{{Name: "Alice", Points: 100}, {Name: "Bob", Points: 300, CorrectAnswers: 3}},
	}
	newer := GameResult{
		RoomCode: "CD34", Host: "Solo", Genre: "rock", Rounds: 3,
		EndedAt: time.Now(),
		Players: []PlayerResult{{Name: "Solo", Points: 50, CorrectAnswers: 1}},
	}
	require.NoError(t, database.RecordGames(ctx, []GameResult{older, newer}))

	games, err := database.RecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "CD34", games[0].RoomCode)
	assert.Equal(t, "AB12", games[1].RoomCode)
	require.Len(t, games[1].Players, 2)
	assert.Equal(t, "Bob", games[1].Players[0].Name)
	assert.Equal(t, 1, games[1].Players[0].Rank)
	assert.Equal(t, 3, games[1].Players[0].CorrectAnswers)
}

func TestRecentGames_Limit(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	var batch []GameResult
	for i := 0; i < 3; i++ {
		batch = append(batch, GameResult{RoomCode: "LIM1", Host: "H", Rounds: 1})
	}
	require.NoError(t, database.RecordGames(ctx, batch))

	games, err := database.RecentGames(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}
