package reputation

// Role distinguishes the two sides an account can be rated on.
type Role uint8

const (
	RoleSeller Role = iota + 1
	RoleBuyer
)

// Valid reports whether the role value is within the supported range.
func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RoleBuyer:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "seller"
	case RoleBuyer:
		return "buyer"
	default:
		return "unknown"
	}
}

// Record is the running aggregate of ratings received by an account in a
// given role. The average is computed on read and never stored.
type Record struct {
	Sum   uint64
	Count uint64
}

// Average returns the integer floor of the rating average, zero when the
// account has never been rated.
func (r *Record) Average() uint64 {
	if r == nil || r.Count == 0 {
		return 0
	}
	return r.Sum / r.Count
}
