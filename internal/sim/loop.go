package sim

import (
	"context"
	"time"

	"dodge-and-deal/server/internal/world"
	"dodge-and-deal/server/logging"
	"dodge-and-deal/server/logging/simulation"
)

// Command mutates the world from outside the loop; commands queue up and run
// at the top of the next tick, so the world stays single-goroutine.
type Command func(*World)

// Loop steps the world at the fixed tick rate and hands each snapshot to the
// broadcast callback.
type Loop struct {
	world      *World
	publisher  logging.Publisher
	interval   time.Duration
	commands   chan Command
	onSnapshot func(Snapshot)
	onTick     func(time.Duration)

	overrunStreak uint64
}

// OnTick registers a hook receiving each tick's wall-clock duration. Must be
// called before Run.
func (l *Loop) OnTick(hook func(time.Duration)) { l.onTick = hook }

// NewLoop wires a loop around the world. onSnapshot may be nil.
func NewLoop(w *World, publisher logging.Publisher, onSnapshot func(Snapshot)) *Loop {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Loop{
		world:      w,
		publisher:  publisher,
		interval:   time.Second / time.Duration(world.TickRate),
		commands:   make(chan Command, 64),
		onSnapshot: onSnapshot,
	}
}

// Enqueue schedules a command for the next tick, reporting false when the
// queue is full.
func (l *Loop) Enqueue(cmd Command) bool {
	if cmd == nil {
		return false
	}
	select {
	case l.commands <- cmd:
		return true
	default:
		return false
	}
}

// Run blocks stepping the world until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	dt := l.interval.Seconds()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			l.drainCommands()
			l.world.Step(dt)
			if l.onSnapshot != nil {
				l.onSnapshot(l.world.Snapshot())
			}
			elapsed := time.Since(start)
			if l.onTick != nil {
				l.onTick(elapsed)
			}
			l.observeBudget(ctx, elapsed)
		}
	}
}

func (l *Loop) drainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			cmd(l.world)
		default:
			return
		}
	}
}

func (l *Loop) observeBudget(ctx context.Context, elapsed time.Duration) {
	if elapsed <= l.interval {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	simulation.TickBudgetOverrun(ctx, l.publisher, l.world.Tick(), simulation.TickBudgetOverrunPayload{
		DurationMillis: elapsed.Milliseconds(),
		BudgetMillis:   l.interval.Milliseconds(),
		Ratio:          float64(elapsed) / float64(l.interval),
		Streak:         l.overrunStreak,
	})
}
