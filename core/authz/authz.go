package authz

// Role is a principal's platform role.
type Role string

const (
	RoleSuperadmin  Role = "SUPERADMIN"
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"
	RoleUser        Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleSchoolAdmin, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated actor for a request, resolved once from the
// session token and immutable for the request's duration.
type Principal struct {
	ID   string
	Role Role
	// SchoolID identifies the single school a SCHOOL_ADMIN may administer.
	// Empty for every other role.
	SchoolID string
}

// Action is a requested operation on a resource.
type Action string

const (
	ActionSchoolCreate Action = "school:create"
	ActionSchoolRead   Action = "school:read"
	ActionSchoolUpdate Action = "school:update"
	ActionSchoolDelete Action = "school:delete"

	ActionUserCreate     Action = "user:create"
	ActionUserRead       Action = "user:read"
	ActionUserUpdate     Action = "user:update"
	ActionUserChangeRole Action = "user:change-role"
	ActionUserDelete     Action = "user:delete"

	ActionReviewCreate Action = "review:create"
	ActionReviewRead   Action = "review:read"
	ActionReviewUpdate Action = "review:update"
	ActionReviewDelete Action = "review:delete"

	ActionStatsRead Action = "stats:read"
)

// Kind is the type of resource an action targets.
type Kind string

const (
	KindSchool   Kind = "school"
	KindUser     Kind = "user"
	KindReview   Kind = "review"
	KindPlatform Kind = "platform"
)

// Resource is a reference to the target of an action.
type Resource struct {
	Kind Kind
	ID   string
}

func SchoolRef(id string) Resource { return Resource{Kind: KindSchool, ID: id} }
func UserRef(id string) Resource   { return Resource{Kind: KindUser, ID: id} }
func ReviewRef(id string) Resource { return Resource{Kind: KindReview, ID: id} }
func PlatformRef() Resource        { return Resource{Kind: KindPlatform} }

// Reason codes returned with denials.
type Reason string

const (
	ReasonUnknownRole      Reason = "UNKNOWN_ROLE"
	ReasonSelfProtection   Reason = "SELF_PROTECTION"
	ReasonTenantMismatch   Reason = "TENANT_MISMATCH"
	ReasonInsufficientRole Reason = "INSUFFICIENT_ROLE"
	ReasonNoMatchingRule   Reason = "NO_MATCHING_RULE"
)

// Decision is the outcome of a policy evaluation. A denial is a normal return
// value, not an error.
type Decision struct {
	Allowed bool
	Reason  Reason // set on deny
}

func Allow() Decision             { return Decision{Allowed: true} }
func Deny(reason Reason) Decision { return Decision{Reason: reason} }

func (d Decision) Denied() bool { return !d.Allowed }

// Err converts a denial into a typed error for layers that propagate errors
// instead of decisions. Returns nil for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// DeniedError carries a denial reason across service boundaries.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string { return "permission denied: " + string(e.Reason) }

// Evaluate decides whether principal may perform action on res.
// It is pure, total over its inputs and fail-closed: any action not explicitly
// allowed is denied with ReasonNoMatchingRule.
func Evaluate(p Principal, action Action, res Resource) Decision {
	if !p.Role.Valid() {
		return Deny(ReasonUnknownRole)
	}

	// Self-protection comes before any role shortcut: nobody changes their own
	// role or deletes their own account, superadmins included.
	if res.Kind == KindUser && res.ID != "" && res.ID == p.ID {
		switch action {
		case ActionUserChangeRole, ActionUserDelete:
			return Deny(ReasonSelfProtection)
		case ActionUserRead, ActionUserUpdate:
			return Allow() // own profile
		}
	}

	switch p.Role {
	case RoleSuperadmin:
		return Allow()
	case RoleSchoolAdmin:
		return evaluateSchoolAdmin(p, action, res)
	case RoleUser:
		return evaluateUser(action)
	}
	return Deny(ReasonNoMatchingRule)
}

func evaluateSchoolAdmin(p Principal, action Action, res Resource) Decision {
	switch action {
	case ActionSchoolRead, ActionReviewRead, ActionStatsRead:
		return Allow()
	case ActionSchoolUpdate:
		// An admin without an assigned school is a data integrity violation;
		// the decision must still be total, so it degrades to a tenant denial.
		if p.SchoolID == "" || res.ID != p.SchoolID {
			return Deny(ReasonTenantMismatch)
		}
		return Allow()
	case ActionSchoolCreate,
		ActionUserCreate, ActionUserRead, ActionUserUpdate, ActionUserChangeRole, ActionUserDelete:
		return Deny(ReasonInsufficientRole)
	}
	return Deny(ReasonNoMatchingRule)
}

func evaluateUser(action Action) Decision {
	switch action {
	case ActionSchoolRead, ActionReviewRead, ActionStatsRead:
		return Allow()
	case ActionReviewCreate, ActionReviewUpdate, ActionReviewDelete:
		// Author ownership of the targeted review is enforced by the review
		// service against the data layer.
		return Allow()
	case ActionSchoolCreate,
		ActionUserCreate, ActionUserRead, ActionUserUpdate, ActionUserChangeRole, ActionUserDelete:
		return Deny(ReasonInsufficientRole)
	}
	return Deny(ReasonNoMatchingRule)
}
