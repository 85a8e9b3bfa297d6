package types

import "time"

// Stage is a state of the sync loop
type Stage string

const (
	StageIdle        Stage = "idle"
	StageResolving   Stage = "resolving"
	StageReconciling Stage = "reconciling"
	StagePublishing  Stage = "publishing"
	StageSleeping    Stage = "sleeping"
)

// Status is a point-in-time snapshot of the sync loop
type Status struct {
	Stage         Stage     `json:"stage"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	Address       string    `json:"address,omitempty"`
	Changed       bool      `json:"changed"`
	Cycles        int64     `json:"cycles"`
	Failures      int64     `json:"failures"`
	LastCycleAt   time.Time `json:"last_cycle_at,omitempty"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorKind ErrorKind `json:"last_error_kind,omitempty"`
	NextCheckAt   time.Time `json:"next_check_at,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

// HealthStatus represents the service health
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
	// Checks holds the error of every failing dependency check
	Checks map[string]string `json:"checks,omitempty"`
}

// AddressChange describes a published change of the recorded address
type AddressChange struct {
	Previous    string    `json:"previous"`
	Current     string    `json:"current"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	// Published is the absolute path the profile was copied to
	Published   string    `json:"published"`
	Timestamp   time.Time `json:"timestamp"`
}
