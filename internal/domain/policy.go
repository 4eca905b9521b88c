package domain

// Access policy for owned content. Two pure decisions cover every route:
// CanView gates single-resource reads, CanMutate gates every write.
// Listing goes through NarrowList, which turns the caller's requested
// filter into a fail-closed effective scope instead of an error.

// CanView reports whether the principal may read a resource owned by
// ownerID in the given publication state. Published resources are public,
// drafts are visible to their owner only. Callers that are denied must be
// answered with a not-found outcome, not forbidden, so the existence of
// private drafts does not leak.
func CanView(p Principal, ownerID string, published bool) bool {
	if published {
		return true
	}
	return p.Owns(ownerID)
}

// CanMutate reports whether the principal may update, delete or change the
// publication state of a resource owned by ownerID. Only the authenticated
// owner qualifies; anonymous principals always fail. Unlike CanView, a
// denial here maps to forbidden: the caller already holds the resource id,
// so there is nothing left to hide.
func CanMutate(p Principal, ownerID string) bool {
	return p.Owns(ownerID)
}

// ListScope is the effective filter for a list query after the visibility
// policy has been applied to the caller's requested one.
type ListScope struct {
	// Status restricts the result to one publication state ("" = any the
	// viewer may see).
	Status string
	// AuthorID restricts the result to one author ("" = any).
	AuthorID string
	// ViewerID is the account whose drafts may appear in the result.
	// Empty means drafts are excluded entirely.
	ViewerID string
	// Empty forces an empty result set. This is the fail-closed answer to
	// requests for other people's drafts; it is deliberately not an error.
	Empty bool
}

// NarrowList computes the effective list scope for a principal requesting
// the given status/author filter. Rules:
//   - anonymous callers see published entries only, whatever they asked for;
//     asking for drafts yields the empty set
//   - an authenticated caller asking for drafts sees their own; asking for
//     another author's drafts yields the empty set
//   - with no status filter, the visible set is published entries plus the
//     caller's own drafts
func NarrowList(p Principal, status, authorID string) ListScope {
	scope := ListScope{Status: status, AuthorID: authorID}
	if p.IsAnonymous() {
		if status == StatusDraft {
			scope.Empty = true
			return scope
		}
		scope.Status = StatusPublished
		return scope
	}

	scope.ViewerID = p.ID
	if status == StatusDraft {
		if authorID == "" {
			// Unqualified draft listing means the caller's own drafts.
			scope.AuthorID = p.ID
		} else if authorID != p.ID {
			scope.Empty = true
		}
	}
	return scope
}

// Publication states shared by policy and models.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ValidStatus reports whether s is a known publication state.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}
