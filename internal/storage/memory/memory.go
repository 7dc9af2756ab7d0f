// Package memory provides the default, process-local implementation of
// storage.Storage: an ordered slice of students plus a next-id counter.
// Nothing survives a restart.
package memory

import (
	"slices"
	"sync"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

// Memory is the in-memory student registry.
// A single lock guards both the slice and the id counter.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student
	nextID   int64
}

// New returns an empty registry whose first id will be 1.
func New() *Memory {
	return &Memory{
		students: make([]types.Student, 0),
		nextID:   1,
	}
}

func (m *Memory) CreateStudent(name string, age int, email string, course string) (types.Student, error) {
	stored, err := storage.CreatedAge(age)
	if err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	student := types.Student{
		ID:     m.nextID,
		Name:   name,
		Age:    stored,
		Email:  email,
		Course: course,
	}
	m.students = append(m.students, student)
	m.nextID++

	return student, nil
}

func (m *Memory) GetStudentByID(id int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Student{}, storage.ErrNotFound
	}
	return m.students[i], nil
}

// GetStudents returns a copy so callers can't mutate the registry.
func (m *Memory) GetStudents() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, len(m.students))
	copy(students, m.students)
	return students, nil
}

func (m *Memory) UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Student{}, storage.ErrNotFound
	}
	patch.Apply(&m.students[i])
	return m.students[i], nil
}

func (m *Memory) DeleteStudentByID(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return storage.ErrNotFound
	}
	m.students = slices.Delete(m.students, i, i+1)
	return nil
}

func (m *Memory) CountStudents() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// indexOf returns the slice index of id, or -1. Caller must hold m.mu.
func (m *Memory) indexOf(id int64) int {
	return slices.IndexFunc(m.students, func(s types.Student) bool {
		return s.ID == id
	})
}
