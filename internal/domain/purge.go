package domain

// PhaseResult captures the outcome of one entity-type deletion inside a
// purge phase. Failure is data here, not a raised error: the engine's
// tolerate-failure policy records it and moves on.
type PhaseResult struct {
	Phase  string
	Entity string
	Rows   int64
	Err    error
}

// PurgeReport summarizes a cascading tenant purge: every step's outcome,
// plus the member user IDs captured before the membership rows were
// deleted. The ID set is the required input to orphan reclamation.
type PurgeReport struct {
	TenantID      string
	Results       []PhaseResult
	MemberUserIDs []string
}

// Failed returns the steps that errored. A non-empty result does not make
// the purge a failure; only the final tenant-row delete can do that.
func (r PurgeReport) Failed() []PhaseResult {
	var out []PhaseResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// ReclaimReport summarizes an orphan reclamation pass.
type ReclaimReport struct {
	Scanned  int // user IDs examined
	Retained int // protected by a remaining membership or admin privilege
	Deleted  int // user rows removed
	Failed   int // chunks whose delete errored (logged, skipped)
}

// ExportSnapshot is a read-only export of a tenant and its core records.
type ExportSnapshot struct {
	Tenant  Tenant
	Quotas  map[string]int64
	Members []ExportMember
	Classes []ExportClass
	Counts  map[string]int64
}

// ExportMember is a membership joined with its global user.
type ExportMember struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// ExportClass is a scheduling entry included in an export.
type ExportClass struct {
	ID       string
	Name     string
	Bookings int64
}
