// Package student contains all HTTP handlers related to the Student resource.
//
// Each exported function is a factory: it receives its dependencies once,
// at route registration, and returns the http.HandlerFunc the router calls
// on every request.
//
//	router.HandleFunc("POST /students", student.New(storage))
package student

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// DetailNotFound is the error detail sent with every 404.
const DetailNotFound = "Student not found"

// DetailAgeOutOfRange is sent when the created age would overflow.
const DetailAgeOutOfRange = "field age is out of range"

// validate is shared by all handlers; a *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON keys ("age") instead of Go field names ("Age").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
//
// Request body (JSON) — every field required:
//
//	{ "name": "Alice Smith", "age": 22, "email": "alice@example.com", "course": "Mathematics" }
//
// Success response (201 Created) — the stored record. The registry adds
// 20 to the age on create:
//
//	{ "id": 1, "name": "Alice Smith", "age": 42, "email": "alice@example.com", "course": "Mathematics" }
//
// Error responses:
//
//	422 Unprocessable Entity — empty or null body, malformed JSON, wrong types,
//	                           missing fields, age too large
//	500 Internal             — storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusUnprocessableEntity,
					response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			return
		}

		student, err := storage.CreateStudent(*req.Name, *req.Age, *req.Email, *req.Course)
		if isAgeOutOfRange(err) {
			response.WriteError(w, http.StatusUnprocessableEntity, DetailAgeOutOfRange)
			return
		}
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.Int64("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Error responses:
//
//	422 Unprocessable Entity — id is not an integer
//	404 Not Found            — no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := storage.GetStudentByID(id)
		if err != nil {
			writeStorageError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /students and returns every student in insertion
// order. An empty registry encodes as [] (not null).
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Changes only the fields present in the body; the rest keep their value.
//
//	{ "course": "Physics" }
//
// Unlike create, a submitted age is stored as-is.
//
// Error responses:
//
//	422 Unprocessable Entity — invalid id, empty or null body, malformed JSON, wrong types
//	404 Not Found            — no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		var patch types.StudentPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		updated, err := storage.UpdateStudentByID(id, patch)
		if err != nil {
			writeStorageError(w, "error updating student", id, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /students/{id}: 204 with no body on success,
// 404 if the id is unknown.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		if err := storage.DeleteStudentByID(id); err != nil {
			writeStorageError(w, "error deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteNoContent(w)
	}
}

// pathID parses the {id} path segment. On failure it writes a 422 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.WriteError(w, http.StatusUnprocessableEntity, "invalid id: must be an integer")
		return 0, false
	}
	return id, true
}

// decodeBody decodes a body holding exactly one JSON object into dst.
// On failure it writes a 422 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeObject(r.Body, dst); err != nil {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return false
	}
	return true
}

var (
	errEmptyBody    = errors.New("request body is empty")
	errNotAnObject  = errors.New("request body must be a JSON object")
	errTrailingData = errors.New("request body must contain a single JSON object")
)

func decodeObject(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)

	// A bare null would decode into dst as a no-op, so look at the raw
	// value before unmarshalling it.
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if bytes.Equal(raw, []byte("null")) {
		return errNotAnObject
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}

	return json.Unmarshal(raw, dst)
}

func writeStorageError(w http.ResponseWriter, msg string, id int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteError(w, http.StatusNotFound, DetailNotFound)
		return
	}
	slog.Error(msg, slog.Int64("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

func isAgeOutOfRange(err error) bool {
	return errors.Is(err, storage.ErrAgeOutOfRange)
}
