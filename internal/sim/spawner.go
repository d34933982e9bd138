package sim

import "dodge-and-deal/server/internal/ai"

// SpawnConfig controls the customer trickle through the door.
type SpawnConfig struct {
	Enabled        bool
	MinInterval    float64
	MaxInterval    float64
	ThiefChance    float64
	LittererChance float64
	MaxCustomers   int
	// BanDuration pauses spawning after a customer is defeated.
	BanDuration float64
}

// DefaultSpawnConfig is the shipped trickle: a customer every few seconds,
// mostly regulars.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Enabled:        true,
		MinInterval:    2.0,
		MaxInterval:    6.0,
		ThiefChance:    0.15,
		LittererChance: 0.25,
		MaxCustomers:   8,
		BanDuration:    10.0,
	}
}

type spawner struct {
	cfg      SpawnConfig
	timer    float64
	next     float64
	banTimer float64
}

func newSpawner(cfg SpawnConfig) spawner {
	if cfg == (SpawnConfig{}) {
		cfg = DefaultSpawnConfig()
	}
	return spawner{cfg: cfg, next: cfg.MinInterval}
}

func (s *spawner) ban() {
	if s.cfg.BanDuration > s.banTimer {
		s.banTimer = s.cfg.BanDuration
	}
}

// step advances the spawn clock and spawns at most one customer per tick.
func (s *spawner) step(w *World, dt float64) {
	if !s.cfg.Enabled {
		return
	}
	if s.banTimer > 0 {
		s.banTimer -= dt
		return
	}
	s.timer += dt
	if s.timer < s.next {
		return
	}
	if s.cfg.MaxCustomers > 0 && len(w.agents) >= s.cfg.MaxCustomers {
		return
	}
	s.timer = 0
	s.next = s.cfg.MinInterval + w.rng.Float64()*(s.cfg.MaxInterval-s.cfg.MinInterval)
	w.SpawnCustomer(s.rollArchetype(w))
}

func (s *spawner) rollArchetype(w *World) ai.Archetype {
	roll := w.rng.Float64()
	if roll < s.cfg.ThiefChance {
		return ai.ArchetypeThief
	}
	if roll < s.cfg.ThiefChance+s.cfg.LittererChance {
		return ai.ArchetypeLitterer
	}
	return ai.ArchetypeRegular
}
