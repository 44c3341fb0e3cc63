package distribution

// Budget meters how much work a batch run may still do. The relay derives
// it from whatever resource bounds the run (gas prepaid for the settlement,
// a time slice, a rate limit window).
type Budget interface {
	Remaining() uint64
	Spend(cost uint64)
}

// CountdownBudget is a fixed allowance that shrinks as entries are applied.
type CountdownBudget struct {
	remaining uint64
}

func NewCountdownBudget(allowance uint64) *CountdownBudget {
	return &CountdownBudget{remaining: allowance}
}

func (b *CountdownBudget) Remaining() uint64 {
	return b.remaining
}

func (b *CountdownBudget) Spend(cost uint64) {
	if cost > b.remaining {
		b.remaining = 0
		return
	}
	b.remaining -= cost
}
