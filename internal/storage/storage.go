// Package storage defines the Storage interface — the contract every
// student registry backend must satisfy to work with this application.
//
// Handlers (HTTP layer) depend only on this interface, so the in-memory
// registry and the SQLite registry are interchangeable: main.go picks one
// from the config and injects it.
package storage

import (
	"errors"
	"math"

	"github.com/aanand-mishra/student-management-api/internal/types"
)

// CreateAgeOffset is added to the submitted age when a student is created.
// Updates store the age as sent.
const CreateAgeOffset = 20

// ErrNotFound is returned when no student matches the requested id.
var ErrNotFound = errors.New("student not found")

// ErrAgeOutOfRange is returned by CreateStudent when age+CreateAgeOffset
// does not fit in an int.
var ErrAgeOutOfRange = errors.New("age is out of range")

// CreatedAge returns the age stored for a new student.
func CreatedAge(age int) (int, error) {
	if age > math.MaxInt-CreateAgeOffset {
		return 0, ErrAgeOutOfRange
	}
	return age + CreateAgeOffset, nil
}

// Storage is the registry contract.
//
// Implementations must serialise access: ids are handed out from a single
// counter and are never reissued, and GetStudents returns records in
// insertion order.
type Storage interface {
	// CreateStudent stores a new student with age+CreateAgeOffset and
	// returns the stored record, including its newly assigned id.
	// Returns ErrAgeOutOfRange if the offset age would overflow.
	CreateStudent(name string, age int, email string, course string) (types.Student, error)

	// GetStudentByID returns the student with the given id or ErrNotFound.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID applies patch to an existing student and returns
	// the updated record, or ErrNotFound.
	UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes a student permanently, or returns ErrNotFound.
	DeleteStudentByID(id int64) error

	// CountStudents returns the number of stored students.
	CountStudents() (int, error)

	// Close releases any resources held by the backend.
	Close() error
}
