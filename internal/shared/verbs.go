package shared

import "fmt"

// Verb is one of the four operations the matrix grants per menu.
type Verb string

const (
	VerbView   Verb = "view"
	VerbCreate Verb = "create"
	VerbEdit   Verb = "edit"
	VerbDelete Verb = "delete"
)

// Verbs lists the vocabulary in canonical order.
func Verbs() []Verb {
	return []Verb{VerbView, VerbCreate, VerbEdit, VerbDelete}
}

// ParseVerb accepts exactly the four lower-case verb names.
func ParseVerb(s string) (Verb, error) {
	switch Verb(s) {
	case VerbView, VerbCreate, VerbEdit, VerbDelete:
		return Verb(s), nil
	}
	return "", Validation("verb", "unknown_verb", fmt.Sprintf("unknown verb %q", s))
}

// Mask is the four-bit grant of one role on one menu.
type Mask struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// FullMask grants every verb.
func FullMask() Mask {
	return Mask{View: true, Create: true, Edit: true, Delete: true}
}

// ViewOnly grants view.
func ViewOnly() Mask {
	return Mask{View: true}
}

// Has reports whether verb is granted.
func (m Mask) Has(v Verb) bool {
	switch v {
	case VerbView:
		return m.View
	case VerbCreate:
		return m.Create
	case VerbEdit:
		return m.Edit
	case VerbDelete:
		return m.Delete
	}
	return false
}

// Monotonic reports whether any write verb implies view.
func (m Mask) Monotonic() bool {
	return m.View || !(m.Create || m.Edit || m.Delete)
}

// IsZero reports whether nothing is granted.
func (m Mask) IsZero() bool {
	return m == Mask{}
}

// Union grants every verb granted by either mask.
func (m Mask) Union(o Mask) Mask {
	return Mask{
		View:   m.View || o.View,
		Create: m.Create || o.Create,
		Edit:   m.Edit || o.Edit,
		Delete: m.Delete || o.Delete,
	}
}

// CheckMonotonic returns a validation error when m grants a write verb without view.
func CheckMonotonic(field string, m Mask) error {
	if m.Monotonic() {
		return nil
	}
	return Validation(field, CodeVerbMonotonicity, "create, edit or delete requires view")
}
