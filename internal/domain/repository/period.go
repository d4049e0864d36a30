package repository

// Period is a named trailing window of daily bars.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
)

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1Mo, Period3Mo, Period6Mo, Period1Y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default analysis period.
func DefaultPeriod() Period { return Period3Mo }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// Days returns the approximate calendar length of the period.
func (p Period) Days() int {
	switch p {
	case Period1Mo:
		return 30
	case Period6Mo:
		return 182
	case Period1Y:
		return 365
	default:
		return 91
	}
}
