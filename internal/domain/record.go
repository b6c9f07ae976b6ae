package domain

import "time"

// GenerationRecord is the immutable audit row written once per generation
// attempt. It is never mutated after creation.
type GenerationRecord struct {
	ID          string
	UserID      string
	ImageID     string
	Model       string
	Resolution  string
	AspectRatio string
	ImageSize   string
	Prompt      string
	UserPrompt  string
	ModuleName  string
	Credits     int
	Success     bool
	CreatedAt   time.Time
}

// ModuleUsage aggregates generation counts per design module.
type ModuleUsage struct {
	ModuleName string
	Count      int
}

// StatsWindow aggregates generation and recharge activity over a period.
type StatsWindow struct {
	TotalImages     int
	SuccessImages   int
	CreditsConsumed int
	NewUsers        int
	RechargeAmount  float64
	RechargeCredits int
}

// AdminStats is the full dashboard payload.
type AdminStats struct {
	Today       StatsWindow
	Total       StatsWindow
	TotalUsers  int
	ModuleUsage []ModuleUsage
}
