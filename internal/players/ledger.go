package players

import "sync"

// Ledger keeps the scores of a room in join order.
type Ledger struct {
	mu     sync.Mutex
	order  []string
	scores map[string]*PlayerScore
}

func NewLedger() *Ledger {
	return &Ledger{
		scores: make(map[string]*PlayerScore),
	}
}

// Add creates a zeroed entry. It returns false if name already exists.
func (l *Ledger) Add(name, avatar string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.scores[name]; exists {
		return false
	}
	l.scores[name] = &PlayerScore{Name: name, Avatar: avatar}
	l.order = append(l.order, name)
	return true
}

func (l *Ledger) Remove(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.scores[name]; !exists {
		return false
	}
	delete(l.scores, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

func (l *Ledger) Get(name string) (PlayerScore, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.scores[name]
	if !ok {
		return PlayerScore{}, false
	}
	return *p, true
}

// SetScore overwrites the cumulative totals reported for name.
func (l *Ledger) SetScore(name string, points, correctAnswers int) (PlayerScore, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.scores[name]
	if !ok {
		return PlayerScore{}, false
	}
	p.Points = points
	p.CorrectAnswers = correctAnswers
	return *p, true
}

// Baseline snapshots every player's points into PreviousPoints.
func (l *Ledger) Baseline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.scores {
		p.PreviousPoints = p.Points
	}
}

// List returns copies in insertion order. Ranking is left to the consumer.
func (l *Ledger) List() []PlayerScore {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PlayerScore, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, *l.scores[name])
	}
	return out
}

func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
