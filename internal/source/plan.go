package source

// Approximate span in days for each period token the provider understands.
// 7d and 60d are the short fallback windows used when a requested period is
// too wide for a fine-grained interval.
var periodDays = map[string]int{
	"1d": 1, "5d": 5, "7d": 7, "60d": 60,
	"1mo": 30, "3mo": 90, "6mo": 182,
	"1y": 365, "2y": 730, "5y": 1825, "10y": 3650,
	"ytd": 365, "max": 1 << 20,
}

var allowedIntervals = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {},
	"90m": {}, "1h": {}, "1d": {}, "5d": {}, "1wk": {}, "1mo": {}, "3mo": {},
}

// ValidPeriod reports whether the provider accepts the period token at all.
func ValidPeriod(period string) bool {
	_, ok := periodDays[period]
	return ok
}

// ValidInterval reports whether the provider accepts the interval token.
func ValidInterval(interval string) bool {
	_, ok := allowedIntervals[interval]
	return ok
}

// FallbackPeriod maps a sampling interval to the widest period the provider
// serves at that granularity: minute data is only kept for days, sub-hour
// data for weeks, hourly for a couple of years.
func FallbackPeriod(interval string) string {
	switch interval {
	case "1m":
		return "7d"
	case "2m", "5m", "15m", "30m":
		return "60d"
	case "60m", "90m", "1h":
		return "2y"
	default:
		return "max"
	}
}

// maxPeriodDays is the widest span the provider serves for an interval.
func maxPeriodDays(interval string) int {
	return periodDays[FallbackPeriod(interval)]
}

// ValidPlan reports whether the period/interval combination is inside the
// provider's supported set.
func ValidPlan(period, interval string) bool {
	if !ValidInterval(interval) || !ValidPeriod(period) {
		return false
	}
	return periodDays[period] <= maxPeriodDays(interval)
}

// ResolvePlan returns a (period, interval) pair safe to send upstream. An
// unsupported interval falls back to 1m; a period unknown to the provider or
// too wide for the interval is replaced by the interval-derived fallback.
// The third result reports whether anything changed.
func ResolvePlan(period, interval string) (string, string, bool) {
	changed := false
	if !ValidInterval(interval) {
		interval = "1m"
		changed = true
	}
	if !ValidPlan(period, interval) {
		period = FallbackPeriod(interval)
		changed = true
	}
	return period, interval, changed
}
