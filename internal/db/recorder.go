package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	recorderBatchSize = 20
	recorderFlush     = 500 * time.Millisecond
)

// GameWriter persists batches of finished games.
type GameWriter interface {
	RecordGames(ctx context.Context, games []GameResult) error
}

// Recorder buffers finished games and writes them off the request path.
// A nil *Recorder accepts and discards everything.
type Recorder struct {
	w      GameWriter
	buffer chan GameResult
}

func NewRecorder(w GameWriter, size int) *Recorder {
	return &Recorder{
		w:      w,
		buffer: make(chan GameResult, size),
	}
}

// Enqueue never blocks. It reports false when the buffer is full.
func (r *Recorder) Enqueue(g GameResult) bool {
	if r == nil {
		return false
	}
	select {
	case r.buffer <- g:
		return true
	default:
		log.Warn().Str("room", g.RoomCode).Msg("archive buffer full, game dropped")
		return false
	}
}

// Run drains the buffer until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(recorderFlush)
	defer ticker.Stop()

	batch := make([]GameResult, 0, recorderBatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.w.RecordGames(ctx, batch); err != nil {
			log.Error().Err(err).Int("games", len(batch)).Msg("archive write failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case g := <-r.buffer:
			batch = append(batch, g)
			if len(batch) >= recorderBatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			for {
				select {
				case g := <-r.buffer:
					batch = append(batch, g)
				default:
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					flush(shutdownCtx)
					cancel()
					return
				}
			}
		}
	}
}
