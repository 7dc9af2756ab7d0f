// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// By default the database is opened as ":memory:", so the registry lives
// exactly as long as the process, same as the memory backend. SQLite gives
// us ordering and id allocation for free:
//
//   - INTEGER PRIMARY KEY AUTOINCREMENT never reuses an id, even after the
//     row with the highest id is deleted.
//   - ORDER BY id is insertion order, because ids only ever grow.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the SQLite implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open is New without a config, for callers that only have a DSN.
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the
	// pool must never hold more than one. This also serialises all
	// registry access through that single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Schema:
	//   id     — never reissued thanks to AUTOINCREMENT
	//   name   — student's full name
	//   age    — stored age (create adds CreateAgeOffset, update does not)
	//   email  — not unique, not format-checked
	//   course — course the student is enrolled in
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			name   TEXT    NOT NULL,
			age    INTEGER NOT NULL,
			email  TEXT    NOT NULL,
			course TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent inserts a new row and reads it back.
// Prepared statements keep user input out of the SQL text.
func (s *SQLite) CreateStudent(name string, age int, email string, course string) (types.Student, error) {
	stored, err := storage.CreatedAge(age)
	if err != nil {
		return types.Student{}, err
	}

	stmt, err := s.Db.Prepare(
		"INSERT INTO students (name, age, email, course) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(name, stored, email, course)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return s.GetStudentByID(lastID)
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	return getStudent(s.Db, id)
}

// GetStudents returns all student rows in insertion order.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	stmt, err := s.Db.Prepare(
		"SELECT id, name, age, email, course FROM students ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so the handler encodes [] rather than null.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Age,
			&student.Email,
			&student.Course,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID writes only the columns present in patch.
//
// The existence check, the UPDATE and the read-back share one transaction
// so a concurrent delete can't slip in between them.
func (s *SQLite) UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := getStudent(tx, id); err != nil {
		return types.Student{}, err
	}

	if !patch.Empty() {
		query, args := buildUpdate(id, patch)
		if _, err := tx.Exec(query, args...); err != nil {
			return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
		}
	}

	updated, err := getStudent(tx, id)
	if err != nil {
		return types.Student{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: commit: %w", err)
	}
	return updated, nil
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(id int64) error {
	stmt, err := s.Db.Prepare("DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *SQLite) CountStudents() (int, error) {
	var n int
	if err := s.Db.QueryRow("SELECT COUNT(*) FROM students").Scan(&n); err != nil {
		return 0, fmt.Errorf("CountStudents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database. For ":memory:" this drops all data.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getStudent(q queryRower, id int64) (types.Student, error) {
	var student types.Student

	err := q.QueryRow(
		"SELECT id, name, age, email, course FROM students WHERE id = ? LIMIT 1", id,
	).Scan(
		&student.ID,
		&student.Name,
		&student.Age,
		&student.Email,
		&student.Course,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// buildUpdate renders an UPDATE for the fields set in patch.
// Column names come from this function, never from the request.
func buildUpdate(id int64, patch types.StudentPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, patch.Name.Value)
	}
	if patch.Age.Set {
		sets = append(sets, "age = ?")
		args = append(args, patch.Age.Value)
	}
	if patch.Email.Set {
		sets = append(sets, "email = ?")
		args = append(args, patch.Email.Value)
	}
	if patch.Course.Set {
		sets = append(sets, "course = ?")
		args = append(args, patch.Course.Value)
	}
	args = append(args, id)

	return "UPDATE students SET " + strings.Join(sets, ", ") + " WHERE id = ?", args
}
