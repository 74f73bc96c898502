// Package claim defines the insurance claim record scored by the fraud model
// and the rules a record must satisfy before it reaches the model.
package claim

import "strings"

// ClaimType 理赔类型
type ClaimType string

const (
	TypeAuto   ClaimType = "auto"
	TypeHome   ClaimType = "home"
	TypeHealth ClaimType = "health"
	TypeOther  ClaimType = "other"
)

// ClaimTypes lists the accepted claim types in display order.
func ClaimTypes() []ClaimType {
	return []ClaimType{TypeAuto, TypeHome, TypeHealth, TypeOther}
}

// ParseClaimType matches s case-insensitively against the known claim types.
func ParseClaimType(s string) (ClaimType, bool) {
	normalized := ClaimType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range ClaimTypes() {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// Record is one claim submitted for scoring. It is built per request and
// discarded once the prediction is made.
type Record struct {
	ClaimAmount    float64   `json:"claim_amount"`
	ClaimAge       int       `json:"claim_age"`
	ClaimType      ClaimType `json:"claim_type"`
	ClaimantAge    int       `json:"claimant_age"`
	PolicyDuration float64   `json:"policy_duration"`
	MonthlyPremium float64   `json:"monthly_premium"`
	Witnesses      int       `json:"witnesses"`
	PoliceReport   int       `json:"police_report"`
	InjuryClaim    int       `json:"injury_claim"`
	PropertyClaim  int       `json:"property_claim"`
	VehicleClaim   int       `json:"vehicle_claim"`
}

// Example returns the sample claim used as the form defaults.
func Example() Record {
	return Record{
		ClaimAmount:    5000,
		ClaimAge:       30,
		ClaimType:      TypeAuto,
		ClaimantAge:    45,
		PolicyDuration: 5.0,
		MonthlyPremium: 100.0,
		Witnesses:      1,
		PoliceReport:   1,
		InjuryClaim:    0,
		PropertyClaim:  1,
		VehicleClaim:   1,
	}
}

// Validate checks every attribute against its allowed range.
func (r Record) Validate() error {
	verr := newValidationError()
	if _, ok := ParseClaimType(string(r.ClaimType)); !ok {
		verr.add(FieldClaimType, enumMessage())
	}
	for _, f := range Fields() {
		if f.Kind == KindEnum {
			continue
		}
		if msg := f.check(f.get(r)); msg != "" {
			verr.add(f.Name, msg)
		}
	}
	if verr.empty() {
		return nil
	}
	return verr
}
