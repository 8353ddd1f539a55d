// Package policy decides whether a principal may perform an operation on a
// resource. It is pure: no I/O, no store access. Callers load the instance
// first when ownership matters and pass its owner references in the Action.
package policy

// Resource names a protected resource family.
type Resource string

const (
	ResourceUsers          Resource = "users"
	ResourceAppointments   Resource = "appointments"
	ResourceMedicalRecords Resource = "medical_records"
	ResourcePatients       Resource = "patients"
)

// Operation names an action on a resource.
type Operation string

const (
	OpList   Operation = "list"
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"

	// OpAssignRole changes a principal's role. Users only.
	OpAssignRole Operation = "assign_role"
	// OpListByRole is the user directory filtered by TargetRole. Users only.
	OpListByRole Operation = "list_by_role"
)

// Scope is how far a role's permission reaches for a resource and operation.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}

// Principal is the authenticated caller.
type Principal struct {
	ID   int64
	Role Role
}

// Action describes what the caller wants to do. Owner references are zero
// when not applicable; a zero reference never matches a principal.
type Action struct {
	Resource  Resource
	Operation Operation

	PatientID int64 // patient_ref of an appointment, record or aggregate
	DoctorID  int64 // doctor_ref of an appointment or record
	SubjectID int64 // target principal of a Users action

	TargetRole Role // OpListByRole only
}

// Evaluator applies the role table and the ownership rule. The zero value is usable.
type Evaluator struct {
	onDecision func(Action, bool)
}

type Option func(*Evaluator)

// WithObserver registers a callback invoked after every Allow decision.
func WithObserver(fn func(a Action, allowed bool)) Option {
	return func(e *Evaluator) {
		e.onDecision = fn
	}
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allow reports whether p may perform a. For OpList with ScopeOwn the answer
// is true and the caller must restrict results to rows p owns.
func (e *Evaluator) Allow(p Principal, a Action) bool {
	allowed := decide(p, a)
	if e != nil && e.onDecision != nil {
		e.onDecision(a, allowed)
	}
	return allowed
}

// ScopeOf exposes the raw role table, used by services to pick list filters.
func (e *Evaluator) ScopeOf(role Role, res Resource, op Operation) Scope {
	return ScopeOf(role, res, op)
}

func decide(p Principal, a Action) bool {
	if p.ID <= 0 {
		return false
	}

	scope := ScopeOf(p.Role, a.Resource, a.Operation)
	switch scope {
	case ScopeAll:
		if a.Resource == ResourceUsers && a.Operation == OpListByRole {
			return directoryVisible(p.Role, a.TargetRole)
		}
		return true
	case ScopeOwn:
		if a.Operation == OpList {
			return true
		}
		return owns(p, a)
	default:
		return false
	}
}

// owns checks the owner reference relevant to p's role.
func owns(p Principal, a Action) bool {
	switch a.Resource {
	case ResourceUsers:
		return a.SubjectID == p.ID
	case ResourceAppointments, ResourceMedicalRecords:
		switch p.Role {
		case RoleDoctor:
			return a.DoctorID == p.ID
		case RolePatient:
			return a.PatientID == p.ID
		}
	case ResourcePatients:
		return p.Role == RolePatient && a.PatientID == p.ID
	}
	return false
}

// directoryVisible restricts which role listings each role may browse.
func directoryVisible(viewer, target Role) bool {
	if !target.Valid() {
		return false
	}
	switch viewer {
	case RoleAdministrator:
		return true
	case RoleDoctor, RoleNurse:
		return target != RoleAdministrator
	case RolePatient:
		return target == RoleDoctor || target == RoleNurse
	default:
		return false
	}
}

// ScopeOf returns the role table entry. Unknown roles, resources and
// operations map to ScopeNone.
func ScopeOf(role Role, res Resource, op Operation) Scope {
	switch role {
	case RoleAdministrator:
		return administratorScope(res, op)
	case RoleDoctor:
		return doctorScope(res, op)
	case RoleNurse:
		return nurseScope(res, op)
	case RolePatient:
		return patientScope(res, op)
	default:
		return ScopeNone
	}
}

func administratorScope(res Resource, op Operation) Scope {
	switch res {
	case ResourceUsers:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate, OpDelete, OpAssignRole, OpListByRole:
			return ScopeAll
		}
	case ResourceAppointments:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate, OpDelete:
			return ScopeAll
		}
	case ResourceMedicalRecords:
		switch op {
		case OpList, OpRead, OpDelete:
			return ScopeAll
		}
	case ResourcePatients:
		switch op {
		case OpList, OpRead:
			return ScopeAll
		}
	}
	return ScopeNone
}

func doctorScope(res Resource, op Operation) Scope {
	switch res {
	case ResourceUsers:
		return selfProfile(op)
	case ResourceAppointments:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate, OpDelete:
			return ScopeOwn
		}
	case ResourceMedicalRecords:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate:
			return ScopeOwn
		case OpDelete:
			return ScopeAll
		}
	case ResourcePatients:
		switch op {
		case OpList, OpRead:
			return ScopeAll
		}
	}
	return ScopeNone
}

func nurseScope(res Resource, op Operation) Scope {
	switch res {
	case ResourceUsers:
		return selfProfile(op)
	case ResourceAppointments:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate:
			return ScopeAll
		}
	case ResourcePatients:
		switch op {
		case OpList, OpRead:
			return ScopeAll
		}
	}
	return ScopeNone
}

func patientScope(res Resource, op Operation) Scope {
	switch res {
	case ResourceUsers:
		return selfProfile(op)
	case ResourceAppointments:
		switch op {
		case OpList, OpRead, OpCreate:
			return ScopeOwn
		}
	case ResourceMedicalRecords:
		switch op {
		case OpList, OpRead:
			return ScopeOwn
		}
	case ResourcePatients:
		if op == OpRead {
			return ScopeOwn
		}
	}
	return ScopeNone
}

// selfProfile is the Users entry shared by every non-administrator role.
func selfProfile(op Operation) Scope {
	switch op {
	case OpRead, OpUpdate:
		return ScopeOwn
	case OpListByRole:
		return ScopeAll
	}
	return ScopeNone
}
