package domain

import "time"

type ReportType string

const (
	ReportTypePickup ReportType = "PICKUP"
	ReportTypeReturn ReportType = "RETURN"
)

type DamageSeverity string

const (
	DamageSeverityMinor    DamageSeverity = "MINOR"
	DamageSeverityModerate DamageSeverity = "MODERATE"
	DamageSeveritySevere   DamageSeverity = "SEVERE"
)

// Damage is one observed defect in a condition report.
type Damage struct {
	Severity    DamageSeverity `json:"severity"`
	Description string         `json:"description"`
	PhotoRef    string         `json:"photo_ref,omitempty"`
}

// ConditionReport is one party's inspection record, filed at pickup or
// return. Reports are immutable once created.
type ConditionReport struct {
	ID               int64      `json:"id"`
	RentalRequestID  int64      `json:"rental_request_id"`
	Type             ReportType `json:"type"`
	ReportedByUserID int64      `json:"reported_by_user_id"`
	Photos           []string   `json:"photos"`
	Damages          []Damage   `json:"damages,omitempty"`
	Signature        string     `json:"signature"`
	CreatedOn        time.Time  `json:"created_on"`
}
