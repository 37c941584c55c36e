package cart

// MatchMode controls how a claimed cart line is matched against the
// authoritative stored line during reconciliation.
type MatchMode int

const (
	// MatchQuantity matches on menu item and quantity only. A stale client
	// price is accepted as long as the quantity agrees with the stored cart;
	// the stored price wins. This mirrors the original checkout behaviour.
	MatchQuantity MatchMode = iota
	// MatchQuantityAndPrice additionally requires the claimed price to equal
	// the stored line price.
	MatchQuantityAndPrice
)

// ReconcileResult partitions the claimed lines of a checkout request into
// those confirmed by the authoritative cart and those that no longer match.
type ReconcileResult struct {
	// Available holds fresh copies of the authoritative lines that confirmed
	// a claimed line. Authoritative values (in particular the price) are used,
	// never the client's.
	Available []Line
	// Unavailable holds the claimed lines that matched nothing, echoed back
	// unchanged.
	Unavailable []Line
}

// Reconcile validates the claimed lines of a checkout request against the
// authoritative lines loaded from the store. It is read-only and performs no
// I/O; callers are responsible for rejecting an empty authoritative set.
func Reconcile(authoritative, claimed []Line, mode MatchMode) ReconcileResult {
	var res ReconcileResult

	for _, c := range claimed {
		matched := false
		for _, a := range authoritative {
			if a.MenuItemID != c.MenuItemID || a.Quantity != c.Quantity {
				continue
			}
			if mode == MatchQuantityAndPrice && !a.Price.Equal(c.Price) {
				continue
			}
			res.Available = append(res.Available, a)
			matched = true
			break
		}
		if !matched {
			res.Unavailable = append(res.Unavailable, c)
		}
	}

	return res
}
