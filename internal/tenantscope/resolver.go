// Package tenantscope decides whether a business record is visible to a
// client-role identity when no direct foreign key links them. The matching
// is heuristic and layered on purpose: each layer is an independent pure
// function so the whole resolver can later be replaced by real foreign-key
// joins without touching call sites.
package tenantscope

// Identity is the snapshot of the client-facing identity doing the read.
// Fields may be empty; the resolver treats missing data as non-matching.
type Identity struct {
	// Name is the profile's display name.
	Name string
	// Email is the identity backend email.
	Email string
	// ManagedGroupName is the customer group this identity manages, if any.
	ManagedGroupName string
	// VisibleUnits are customer/unit names already known to be visible to
	// this identity through an independently-scoped listing.
	VisibleUnits []string
}

// Record is the candidate business record under evaluation.
type Record struct {
	GroupName    string
	OwnerEmail   string
	CustomerName string
}

// MatchesGroup reports whether the record's group equals the identity's
// managed group, after normalizing both sides.
func MatchesGroup(identity Identity, record Record) bool {
	if identity.ManagedGroupName == "" || record.GroupName == "" {
		return false
	}

	return Normalize(record.GroupName) == Normalize(identity.ManagedGroupName)
}

// MatchesOwnerEmail reports whether the record's owner email equals the
// identity's email, case-insensitively.
func MatchesOwnerEmail(identity Identity, record Record) bool {
	if identity.Email == "" || record.OwnerEmail == "" {
		return false
	}

	return NormalizeEmail(record.OwnerEmail) == NormalizeEmail(identity.Email)
}

// MatchesCustomerName reports whether the record's customer name equals the
// identity's own name, after normalizing both sides.
func MatchesCustomerName(identity Identity, record Record) bool {
	if identity.Name == "" || record.CustomerName == "" {
		return false
	}

	return Normalize(record.CustomerName) == Normalize(identity.Name)
}

// MatchesVisibleUnit reports whether the record's customer name is one of
// the units the identity can already see. This is the deliberate permissive
// fallback: records lacking group/email linkage are not silently hidden.
func MatchesVisibleUnit(identity Identity, record Record) bool {
	if record.CustomerName == "" || len(identity.VisibleUnits) == 0 {
		return false
	}

	want := Normalize(record.CustomerName)
	for _, unit := range identity.VisibleUnits {
		if unit == "" {
			continue
		}

		if Normalize(unit) == want {
			return true
		}
	}

	return false
}

// Visible runs the layers in order, short-circuiting on the first match.
// It is total: missing fields resolve to false, never to a panic.
func Visible(identity Identity, record Record) bool {
	if MatchesGroup(identity, record) {
		return true
	}

	if MatchesOwnerEmail(identity, record) {
		return true
	}

	if MatchesCustomerName(identity, record) {
		return true
	}

	return MatchesVisibleUnit(identity, record)
}
