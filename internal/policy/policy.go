// Package policy decides whether an identity may perform an operation on a
// record or a record kind. It is stateless and has no storage access; the
// caller loads the record and passes its owner in.
package policy

import "github.com/iliyamo/healthcare-backend/internal/apperr"

// Identity is the acting caller. The zero value is anonymous.
type Identity struct {
	UserID uint64
}

func (i Identity) Authenticated() bool { return i.UserID != 0 }

type Operation int

const (
	Read Operation = iota
	Create
	Write // update or delete
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Create:
		return "create"
	case Write:
		return "write"
	}
	return "unknown"
}

type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
	KindMapping Kind = "mapping"
)

// Resource describes what is being acted on. OwnerID is zero for kind-level
// decisions (route checks, list, create) and set for record-level ones.
type Resource struct {
	Kind    Kind
	OwnerID uint64
}

// OfKind is a kind-level resource.
func OfKind(k Kind) Resource { return Resource{Kind: k} }

// Patient is a record-level patient resource.
func Patient(ownerID uint64) Resource { return Resource{Kind: KindPatient, OwnerID: ownerID} }

// Authorize returns nil when id may perform op on res. Denials carry no
// record contents. A patient owned by someone else is reported as not found
// so its existence is not disclosed.
func Authorize(id Identity, op Operation, res Resource) error {
	if !id.Authenticated() {
		if res.Kind == KindDoctor && op == Read {
			return nil
		}
		return apperr.Unauthorized("authentication credentials were not provided")
	}

	switch res.Kind {
	case KindPatient:
		if op == Create || res.OwnerID == 0 {
			return nil
		}
		if res.OwnerID != id.UserID {
			return apperr.NotFound("patient not found")
		}
		return nil
	case KindDoctor, KindMapping:
		// TODO: decide whether mapping writes should require ownership of the patient.
		return nil
	}
	return apperr.Forbidden("operation not permitted")
}
