package dto

// ImportCreated acknowledges an accepted bulk import.
type ImportCreated struct {
	RunID string `json:"run_id"`
}
