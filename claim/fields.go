package claim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind 字段类型
type Kind int

const (
	KindNumber Kind = iota
	KindInteger
	KindFlag
	KindEnum
)

const (
	FieldClaimAmount    = "claim_amount"
	FieldClaimAge       = "claim_age"
	FieldClaimType      = "claim_type"
	FieldClaimantAge    = "claimant_age"
	FieldPolicyDuration = "policy_duration"
	FieldMonthlyPremium = "monthly_premium"
	FieldWitnesses      = "witnesses"
	FieldPoliceReport   = "police_report"
	FieldInjuryClaim    = "injury_claim"
	FieldPropertyClaim  = "property_claim"
	FieldVehicleClaim   = "vehicle_claim"
)

// Field describes one required attribute of a Record.
type Field struct {
	Name string
	Kind Kind
	Min  float64
	Max  float64

	get func(Record) float64
	set func(*Record, float64)
}

var fields = []Field{
	{Name: FieldClaimAmount, Kind: KindNumber, Min: 0, Max: 1_000_000,
		get: func(r Record) float64 { return r.ClaimAmount },
		set: func(r *Record, v float64) { r.ClaimAmount = v }},
	{Name: FieldClaimAge, Kind: KindInteger, Min: 0, Max: 365,
		get: func(r Record) float64 { return float64(r.ClaimAge) },
		set: func(r *Record, v float64) { r.ClaimAge = int(v) }},
	{Name: FieldClaimType, Kind: KindEnum},
	{Name: FieldClaimantAge, Kind: KindInteger, Min: 18, Max: 100,
		get: func(r Record) float64 { return float64(r.ClaimantAge) },
		set: func(r *Record, v float64) { r.ClaimantAge = int(v) }},
	{Name: FieldPolicyDuration, Kind: KindNumber, Min: 0.1, Max: 50,
		get: func(r Record) float64 { return r.PolicyDuration },
		set: func(r *Record, v float64) { r.PolicyDuration = v }},
	{Name: FieldMonthlyPremium, Kind: KindNumber, Min: 0, Max: 10_000,
		get: func(r Record) float64 { return r.MonthlyPremium },
		set: func(r *Record, v float64) { r.MonthlyPremium = v }},
	{Name: FieldWitnesses, Kind: KindInteger, Min: 0, Max: 10,
		get: func(r Record) float64 { return float64(r.Witnesses) },
		set: func(r *Record, v float64) { r.Witnesses = int(v) }},
	{Name: FieldPoliceReport, Kind: KindFlag, Min: 0, Max: 1,
		get: func(r Record) float64 { return float64(r.PoliceReport) },
		set: func(r *Record, v float64) { r.PoliceReport = int(v) }},
	{Name: FieldInjuryClaim, Kind: KindFlag, Min: 0, Max: 1,
		get: func(r Record) float64 { return float64(r.InjuryClaim) },
		set: func(r *Record, v float64) { r.InjuryClaim = int(v) }},
	{Name: FieldPropertyClaim, Kind: KindFlag, Min: 0, Max: 1,
		get: func(r Record) float64 { return float64(r.PropertyClaim) },
		set: func(r *Record, v float64) { r.PropertyClaim = int(v) }},
	{Name: FieldVehicleClaim, Kind: KindFlag, Min: 0, Max: 1,
		get: func(r Record) float64 { return float64(r.VehicleClaim) },
		set: func(r *Record, v float64) { r.VehicleClaim = int(v) }},
}

// Fields returns the attribute table in wire order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldNames returns the names of all required attributes.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func (f Field) check(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "must be a finite number"
	}
	switch f.Kind {
	case KindFlag:
		if v != 0 && v != 1 {
			return "must be 0 or 1"
		}
		return ""
	case KindInteger:
		if v != math.Trunc(v) {
			return "must be an integer"
		}
	}
	if v < f.Min || v > f.Max {
		return fmt.Sprintf("must be between %s and %s", formatBound(f.Min), formatBound(f.Max))
	}
	return ""
}

func (f Field) typeMessage() string {
	switch f.Kind {
	case KindInteger:
		return "must be an integer"
	case KindFlag:
		return "must be 0 or 1"
	case KindEnum:
		return "must be a string"
	default:
		return "must be a number"
	}
}

func enumMessage() string {
	names := make([]string, 0, len(ClaimTypes()))
	for _, t := range ClaimTypes() {
		names = append(names, string(t))
	}
	return "must be one of " + strings.Join(names, ", ")
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
