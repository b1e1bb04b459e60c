package services

// ProgressPercentage is the share of the budget already paid out, in [0,100].
func ProgressPercentage(paidOut, totalBudget int64) float64 {
	if totalBudget <= 0 {
		return 0
	}
	pct := float64(paidOut) / float64(totalBudget) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
