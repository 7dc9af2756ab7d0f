// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

// Factory returns a fresh, empty backend.
type Factory func(t *testing.T) storage.Storage

// Run executes the shared registry suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create assigns ids from 1 and adds the age offset", func(t *testing.T) {
		s := newStore(t)

		got, err := s.CreateStudent("Alice Smith", 22, "alice@example.com", "Mathematics")
		require.NoError(t, err)

		assert.Equal(t, types.Student{
			ID:     1,
			Name:   "Alice Smith",
			Age:    42,
			Email:  "alice@example.com",
			Course: "Mathematics",
		}, got)
	})

	t.Run("create rejects an age that overflows with the offset", func(t *testing.T) {
		s := newStore(t)

		_, err := s.CreateStudent("Max", math.MaxInt-storage.CreateAgeOffset+1, "max@example.com", "X")
		assert.ErrorIs(t, err, storage.ErrAgeOutOfRange)

		n, err := s.CountStudents()
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err := s.CreateStudent("Max", math.MaxInt-storage.CreateAgeOffset, "max@example.com", "X")
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, got.Age)
		assert.Equal(t, int64(1), got.ID, "a rejected create must not consume an id")
	})

	t.Run("get returns the stored record", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateStudent("Bob", 19, "bob@example.com", "History")
		require.NoError(t, err)

		got, err := s.GetStudentByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("get unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetStudentByID(9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list is empty, not nil", func(t *testing.T) {
		s := newStore(t)
		students, err := s.GetStudents()
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Empty(t, students)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"c", "a", "b"} {
			_, err := s.CreateStudent(name, 1, name+"@example.com", "X")
			require.NoError(t, err)
		}

		students, err := s.GetStudents()
		require.NoError(t, err)
		require.Len(t, students, 3)
		assert.Equal(t, "c", students[0].Name)
		assert.Equal(t, "a", students[1].Name)
		assert.Equal(t, "b", students[2].Name)
	})

	t.Run("ids are never reused after delete", func(t *testing.T) {
		s := newStore(t)
		first, err := s.CreateStudent("a", 1, "a@x", "X")
		require.NoError(t, err)
		second, err := s.CreateStudent("b", 1, "b@x", "X")
		require.NoError(t, err)
		assert.Equal(t, first.ID+1, second.ID)

		require.NoError(t, s.DeleteStudentByID(second.ID))

		third, err := s.CreateStudent("c", 1, "c@x", "X")
		require.NoError(t, err)
		assert.Equal(t, second.ID+1, third.ID)
	})

	t.Run("update changes only present fields and keeps age verbatim", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateStudent("Alice", 22, "alice@example.com", "Mathematics")
		require.NoError(t, err)

		got, err := s.UpdateStudentByID(created.ID, types.StudentPatch{Course: types.Some("Physics")})
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, 42, got.Age)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, "Physics", got.Course)

		got, err = s.UpdateStudentByID(created.ID, types.StudentPatch{Age: types.Some(22)})
		require.NoError(t, err)
		assert.Equal(t, 22, got.Age)

		stored, err := s.GetStudentByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("update with empty patch returns the record", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateStudent("Alice", 1, "a@x", "X")
		require.NoError(t, err)

		got, err := s.UpdateStudentByID(created.ID, types.StudentPatch{})
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("update unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpdateStudentByID(42, types.StudentPatch{Name: types.Some("x")})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateStudent("a", 1, "a@x", "X")
		require.NoError(t, err)

		require.NoError(t, s.DeleteStudentByID(created.ID))

		_, err = s.GetStudentByID(created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteStudentByID(created.ID), storage.ErrNotFound)

		n, err := s.CountStudents()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent creates get distinct ids", func(t *testing.T) {
		s := newStore(t)
		const workers = 20

		var wg sync.WaitGroup
		ids := make(chan int64, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				st, err := s.CreateStudent(fmt.Sprintf("s%d", i), i, "x@x", "X")
				if assert.NoError(t, err) {
					ids <- st.ID
				}
			}(i)
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, workers)

		n, err := s.CountStudents()
		require.NoError(t, err)
		assert.Equal(t, workers, n)
	})
}
