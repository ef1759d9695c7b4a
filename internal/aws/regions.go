package aws

// Visit reports whether a region configured with sampling fraction should be
// fetched on this run. Fractions of 1 or more always visit; otherwise the
// region is skipped when draw() is at or above the fraction.
func Visit(fraction float64, draw func() float64) bool {
	if fraction >= 1.0 {
		return true
	}
	return draw() < fraction
}

// Section labels output for one account and region.
func Section(account, region string) string {
	return account + ":" + region
}
