package domain

// UnitStatus represents the lifecycle state of a file inside a compile batch.
type UnitStatus string

const (
	// UnitStatusPending indicates the file is waiting for its dependencies.
	UnitStatusPending UnitStatus = "pending"
	// UnitStatusRunning indicates the file is being compiled.
	UnitStatusRunning UnitStatus = "running"
	// UnitStatusCompleted indicates the file was transformed and written.
	UnitStatusCompleted UnitStatus = "completed"
	// UnitStatusCached indicates the output was served from the cache.
	UnitStatusCached UnitStatus = "cached"
	// UnitStatusFailed indicates the file failed to compile.
	UnitStatusFailed UnitStatus = "failed"
)

// IsTerminal checks if a status is a terminal state.
func (s UnitStatus) IsTerminal() bool {
	switch s {
	case UnitStatusCompleted, UnitStatusCached, UnitStatusFailed:
		return true
	default:
		return false
	}
}
