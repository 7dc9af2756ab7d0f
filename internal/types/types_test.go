package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentPatch_Decode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want StudentPatch
	}{
		{
			name: "empty object",
			body: `{}`,
			want: StudentPatch{},
		},
		{
			name: "only course",
			body: `{"course": "Physics"}`,
			want: StudentPatch{Course: Some("Physics")},
		},
		{
			name: "empty string is sent",
			body: `{"name": ""}`,
			want: StudentPatch{Name: Some("")},
		},
		{
			name: "null is not sent",
			body: `{"email": null, "age": 30}`,
			want: StudentPatch{Age: Some(30)},
		},
		{
			name: "zero age is sent",
			body: `{"age": 0}`,
			want: StudentPatch{Age: Some(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StudentPatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudentPatch_WrongType(t *testing.T) {
	var p StudentPatch
	err := json.Unmarshal([]byte(`{"age": "twenty"}`), &p)
	assert.Error(t, err)
}

func TestStudentPatch_Apply(t *testing.T) {
	s := Student{ID: 7, Name: "Alice", Age: 42, Email: "alice@example.com", Course: "Mathematics"}

	StudentPatch{Course: Some("Physics")}.Apply(&s)
	assert.Equal(t, Student{ID: 7, Name: "Alice", Age: 42, Email: "alice@example.com", Course: "Physics"}, s)

	StudentPatch{Age: Some(22)}.Apply(&s)
	assert.Equal(t, 22, s.Age)
}

func TestStudentPatch_Empty(t *testing.T) {
	assert.True(t, StudentPatch{}.Empty())
	assert.False(t, StudentPatch{Email: Some("")}.Empty())
}
