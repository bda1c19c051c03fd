package models

// BreachAlert is the payload pushed to an owner's sessions when a stored
// secret's exposure count goes up.
type BreachAlert struct {
	Label         string `json:"label"`
	AccountName   string `json:"account_name"`
	ExposureCount int64  `json:"exposure_count"`
	RecordID      string `json:"record_id"`
}
