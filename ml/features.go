package ml

import "fraudguard/claim"

// EncodeFeatures lays a claim out in the column order the model was fitted on:
// the ten numeric attributes followed by a one-hot claim type. "other" has no
// column of its own and encodes as all zeros.
func EncodeFeatures(record claim.Record) []float64 {
	claimType, _ := claim.ParseClaimType(string(record.ClaimType))
	return []float64{
		record.ClaimAmount,
		float64(record.ClaimAge),
		float64(record.ClaimantAge),
		record.PolicyDuration,
		record.MonthlyPremium,
		float64(record.Witnesses),
		float64(record.PoliceReport),
		float64(record.InjuryClaim),
		float64(record.PropertyClaim),
		float64(record.VehicleClaim),
		oneHot(claimType, claim.TypeAuto),
		oneHot(claimType, claim.TypeHome),
		oneHot(claimType, claim.TypeHealth),
	}
}

func FeatureNames() []string {
	return []string{
		"claim_amount",
		"claim_age",
		"claimant_age",
		"policy_duration",
		"monthly_premium",
		"witnesses",
		"police_report",
		"injury_claim",
		"property_claim",
		"vehicle_claim",
		"claim_type_auto",
		"claim_type_home",
		"claim_type_health",
	}
}

func oneHot(got, want claim.ClaimType) float64 {
	if got == want {
		return 1
	}
	return 0
}
