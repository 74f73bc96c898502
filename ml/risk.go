package ml

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ClassifyRisk bands a fraud probability into Low (< 0.3), Medium (< 0.7) or High.
func ClassifyRisk(probability float64) RiskLevel {
	switch {
	case probability < 0.3:
		return RiskLow
	case probability < 0.7:
		return RiskMedium
	default:
		return RiskHigh
	}
}
