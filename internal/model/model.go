// Package model holds the canonical domain types shared by every pipeline
// stage: raw agency payloads, normalized events, match results, persisted
// toll events, and statement drafts/statements. Types carry IDs only across
// entity boundaries (never object references), per the platform's "no cyclic
// domain references" convention.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgencyID is a stable identifier for a tolling authority, e.g. "etoll".
type AgencyID string

// EventSource describes where a RawEvent originated.
type EventSource string

const (
	SourceAgencyFeed EventSource = "agency_feed"
	SourcePlatePay    EventSource = "plate_pay"
	SourceManual      EventSource = "manual"
)

// RawEvent is the immutable, agency-shaped event a connector publishes to
// the raw topic before any normalization has occurred.
type RawEvent struct {
	EventID    string          `json:"event_id"`
	AgencyID   AgencyID        `json:"agency_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Source     EventSource     `json:"source"`
	Payload    map[string]any  `json:"payload"`
}

// Location is a geographic point with optional direction/road metadata.
type Location struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Direction string  `json:"direction,omitempty"`
	RoadName  string  `json:"road_name,omitempty"`
}

// NormalizedEvent is the canonical, immutable, agency-agnostic shape of a
// toll pass produced by the Dedup & Normalizer stage.
type NormalizedEvent struct {
	NormalizedID    string          `json:"normalized_id"`
	AgencyID        AgencyID        `json:"agency_id"`
	ExternalEventID string          `json:"external_event_id"`
	Plate           string          `json:"plate"`
	PlateState      string          `json:"plate_state"`
	EventTimestamp  time.Time       `json:"event_timestamp"`
	GantryID        string          `json:"gantry_id,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	VehicleClass    string          `json:"vehicle_class,omitempty"`
	RawAmount       decimal.Decimal `json:"raw_amount"`
	Fees            decimal.Decimal `json:"fees"`
	Currency        string          `json:"currency"`
	EvidenceURI     string          `json:"evidence_uri,omitempty"`
	SchemaVersion   string          `json:"schema_version"`
	Source          EventSource     `json:"source"`
}

// Vehicle mirrors the identity service's vehicle catalog record. Owned
// externally; the pipeline only reads it.
type Vehicle struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Plate        string     `json:"plate"`
	PlateState   string     `json:"plate_state"`
	Type         string     `json:"type"`
	AxleCount    int        `json:"axle_count,omitempty"`
	Class        string     `json:"class,omitempty"`
	Active       bool       `json:"active"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	LastLocation *Location  `json:"last_location,omitempty"`
}

// MatchType enumerates how a MatchResult was resolved.
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchFuzzy         MatchType = "fuzzy"
	MatchTimeBased     MatchType = "time_based"
	MatchManualReview  MatchType = "manual_review"
)

// MatchResult is the transient output of the Matcher stage.
type MatchResult struct {
	Matched    bool      `json:"matched"`
	UserID     string    `json:"user_id,omitempty"`
	VehicleID  string    `json:"vehicle_id,omitempty"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
	Notes      string    `json:"notes,omitempty"`
}

// MatchedEvent pairs a NormalizedEvent with its resolved MatchResult, the
// wire shape the Matcher stage publishes for the Rater stage to consume.
type MatchedEvent struct {
	Event  NormalizedEvent `json:"event"`
	Result MatchResult     `json:"match_result"`
}

// TollEventStatus enumerates the lifecycle of a persisted TollEvent.
type TollEventStatus string

const (
	StatusPending  TollEventStatus = "pending"
	StatusPosted   TollEventStatus = "posted"
	StatusDisputed TollEventStatus = "disputed"
	StatusVoided   TollEventStatus = "voided"
)

// TollEvent is the canonical, persisted toll pass. (agency_id,
// external_event_id) is globally unique.
type TollEvent struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	VehicleID       string          `json:"vehicle_id"`
	AgencyID        AgencyID        `json:"agency_id"`
	ExternalEventID string          `json:"external_event_id"`
	Plate           string          `json:"plate"`
	PlateState      string          `json:"plate_state"`
	EventTimestamp  time.Time       `json:"event_timestamp"`
	GantryID        string          `json:"gantry_id,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	VehicleClass    string          `json:"vehicle_class,omitempty"`
	RawAmount       decimal.Decimal `json:"raw_amount"`
	RatedAmount     decimal.Decimal `json:"rated_amount"`
	Fees            decimal.Decimal `json:"fees"`
	Currency        string          `json:"currency"`
	EvidenceURI     string          `json:"evidence_uri,omitempty"`
	Source          EventSource     `json:"source"`
	Status          TollEventStatus `json:"status"`
	LateArrival     bool            `json:"late_arrival,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StatementDraft is the mutable, per-user accumulation for the current
// billing period.
type StatementDraft struct {
	UserID      string          `json:"user_id"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Timezone    string          `json:"timezone"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Fees        decimal.Decimal `json:"fees"`
	Credits     decimal.Decimal `json:"credits"`
	Total       decimal.Decimal `json:"total"`
	EventIDs    []string        `json:"event_ids"`
	Status      string          `json:"status"`
	Version     int64           `json:"version"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StatementStatus enumerates the lifecycle of an immutable Statement.
type StatementStatus string

const (
	StatementOpen    StatementStatus = "open"
	StatementClosed  StatementStatus = "closed"
	StatementPaid    StatementStatus = "paid"
	StatementOverdue StatementStatus = "overdue"
)

// StatementLineItem references a TollEvent.ID from within a closed Statement.
type StatementLineItem struct {
	TollEventID string          `json:"toll_event_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// Statement is an immutable snapshot of a closed StatementDraft.
type Statement struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Fees        decimal.Decimal      `json:"fees"`
	Credits     decimal.Decimal      `json:"credits"`
	Total       decimal.Decimal      `json:"total"`
	Status      StatementStatus      `json:"status"`
	LineItems   []StatementLineItem  `json:"line_items"`
	CreatedAt   time.Time            `json:"created_at"`
}
