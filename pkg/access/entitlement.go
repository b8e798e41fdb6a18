package access

// ReconcileEntitlement derives the premium flag from ledger truth: one
// succeeded charge is enough, and it never expires.
func ReconcileEntitlement(charges []Charge) bool {
	for _, c := range charges {
		if c.Status == ChargeSucceeded {
			return true
		}
	}
	return false
}

// ApplyEntitlement computes the flag to store after charges were (re-)fetched.
// Tier only moves free -> premium; a premium user stays premium even when the
// ledger no longer shows a succeeded charge.
func ApplyEntitlement(current bool, charges []Charge) (next bool, changed bool) {
	if current {
		return true, false
	}
	next = ReconcileEntitlement(charges)
	return next, next != current
}
