// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

// Student is a student record as stored by the registry and returned to
// clients. The field order here is the field order of the JSON body.
type Student struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Email  string `json:"email"`
	Course string `json:"course"`
}

// CreateStudentRequest is the body of POST /students.
//
// Every field is a pointer so the validator can tell "missing" from "zero".
// validate:"required" on a pointer only checks that it is non-nil, which
// means an age of 0 or an empty name are accepted, but leaving a key out
// (or sending null) is not.
type CreateStudentRequest struct {
	Name   *string `json:"name"   validate:"required"`
	Age    *int    `json:"age"    validate:"required"`
	Email  *string `json:"email"  validate:"required"`
	Course *string `json:"course" validate:"required"`
}

// StudentPatch is the body of PUT /students/{id} and the set of changes
// the registry applies. Any subset of fields may be sent; fields left out
// keep their stored value.
type StudentPatch struct {
	Name   Optional[string] `json:"name"`
	Age    Optional[int]    `json:"age"`
	Email  Optional[string] `json:"email"`
	Course Optional[string] `json:"course"`
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return !p.Name.Set && !p.Age.Set && !p.Email.Set && !p.Course.Set
}

// Apply overwrites the fields of s that are present in p.
// The age is copied verbatim; the create-time offset does not apply here.
func (p StudentPatch) Apply(s *Student) {
	if p.Name.Set {
		s.Name = p.Name.Value
	}
	if p.Age.Set {
		s.Age = p.Age.Value
	}
	if p.Email.Set {
		s.Email = p.Email.Value
	}
	if p.Course.Set {
		s.Course = p.Course.Value
	}
}
