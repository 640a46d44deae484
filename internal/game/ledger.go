package game

// Ledger is the append-only record of accepted submissions for one
// question, keyed by player. A rejected duplicate is simply not
// inserted; entries are never removed or overwritten, so the ledger of
// a past question survives players leaving the room.
type Ledger struct {
	entries map[int64]*Submission
	order   []int64
	settled bool
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int64]*Submission)}
}

func (l *Ledger) Contains(playerID int64) bool {
	_, ok := l.entries[playerID]
	return ok
}

func (l *Ledger) Get(playerID int64) (*Submission, bool) {
	sub, ok := l.entries[playerID]
	return sub, ok
}

func (l *Ledger) Count() int {
	return len(l.entries)
}

func (l *Ledger) AllAnswered(rosterSize int) bool {
	return len(l.entries) >= rosterSize
}

// Append records a submission. It reports false without modifying the
// ledger if the player already has an entry.
func (l *Ledger) Append(sub *Submission) bool {
	if _, ok := l.entries[sub.PlayerID]; ok {
		return false
	}
	l.entries[sub.PlayerID] = sub
	l.order = append(l.order, sub.PlayerID)
	return true
}

// Submissions returns the accepted entries in arrival order.
func (l *Ledger) Submissions() []Submission {
	out := make([]Submission, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.entries[id])
	}
	return out
}
