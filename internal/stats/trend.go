package stats

// PercentChange is the relative change of a count against the prior period.
// A prior of zero yields 100 when the count grew and 0 otherwise.
func PercentChange(current, prior int) float64 {
	if prior == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round1(float64(current-prior) / float64(prior) * 100)
}

// RateDelta is the percentage-point difference between two rates.
func RateDelta(current, prior float64) float64 {
	return round1(current - prior)
}

// Trends compares the current period with the prior one. Counts use
// PercentChange, rates use RateDelta.
type Trends struct {
	TotalRegistered         float64 `json:"totalRegistered"`
	LiveBirths              float64 `json:"liveBirths"`
	HIVPositive             float64 `json:"hivPositive"`
	ANC8Rate                float64 `json:"anc8Rate"`
	FacilityDeliveryRate    float64 `json:"facilityDeliveryRate"`
	FPUptakeRate            float64 `json:"fpUptakeRate"`
	InsuranceEnrollmentRate float64 `json:"insuranceEnrollmentRate"`
	BCGRate                 float64 `json:"bcgRate"`
}

// TrendsOf derives trends from the current and prior tallies.
func TrendsOf(cur, prior *Tally) Trends {
	c, p := cur.Rates(), prior.Rates()
	return Trends{
		TotalRegistered:         PercentChange(cur.Total, prior.Total),
		LiveBirths:              PercentChange(cur.LiveBirths, prior.LiveBirths),
		HIVPositive:             PercentChange(cur.HIV.Positive, prior.HIV.Positive),
		ANC8Rate:                RateDelta(c.ANC8, p.ANC8),
		FacilityDeliveryRate:    RateDelta(c.FacilityDelivery, p.FacilityDelivery),
		FPUptakeRate:            RateDelta(c.FPUptake, p.FPUptake),
		InsuranceEnrollmentRate: RateDelta(c.InsuranceEnrollment, p.InsuranceEnrollment),
		BCGRate:                 RateDelta(c.BCG, p.BCG),
	}
}
