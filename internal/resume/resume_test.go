package resume

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "profile": "  Backend engineer with a focus on Go services.  ",
  "education": [
    {"degree": "BSc Computer Science", "institution": "State University", "year": "2018"},
    {"degree": " ", "institution": "", "year": ""}
  ],
  "experience": [
    {"title": "Software Engineer", "company": "Acme", "dates": "2019 - 2024",
     "details": ["Built the billing API", "", "  Cut p99 latency by 40%  "]}
  ],
  "skills": ["Go", " ", "PostgreSQL", "Kubernetes"],
  "projects": [{"name": "ratelimit", "description": "Sharded fixed-window limiter"}],
  "certificates": ["CKA"]
}`

func TestDecodeNormalizes(t *testing.T) {
	r, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	require.Equal(t, "Backend engineer with a focus on Go services.", r.Profile)
	require.Len(t, r.Education, 1)
	require.Equal(t, []string{"Built the billing API", "Cut p99 latency by 40%"}, r.Experience[0].Details)
	require.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, r.Skills)
	require.Equal(t, []string{"CKA"}, r.Certificates)
	require.False(t, r.IsEmpty())
}

func TestDecodeMissingArraysEncodeAsEmpty(t *testing.T) {
	r, err := Decode([]byte(`{"profile": "Only a profile"}`))
	require.NoError(t, err)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"profile":"Only a profile","education":[],"experience":[],"skills":[],"projects":[],"certificates":[]}`, string(out))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)

	_, err = Decode([]byte(`["not", "an", "object"]`))
	require.ErrorIs(t, err, ErrNotObject)

	_, err = Decode([]byte(`Sure! Here is your resume:`))
	require.Error(t, err)

	_, err = Decode([]byte(`{"skills": "Go"}`))
	require.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	var nilResume *Resume
	require.True(t, nilResume.IsEmpty())
	require.True(t, (&Resume{}).IsEmpty())
	require.False(t, (&Resume{Skills: []string{"Go"}}).IsEmpty())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]byte(sampleJSON)))
	require.NoError(t, Validate([]byte(`{"profile": "x"}`)))
	require.Error(t, Validate([]byte(`{"skills": "Go"}`)))
	require.Error(t, Validate([]byte(`{"experience": [{"details": "one bullet"}]}`)))
}

func TestResponseSchemaIsStrict(t *testing.T) {
	s := ResponseSchema()
	require.Equal(t, "object", s["type"])
	require.Equal(t, false, s["additionalProperties"])
	require.Equal(t, []string{"certificates", "education", "experience", "profile", "projects", "skills"}, s["required"])

	props := s["properties"].(map[string]any)
	exp := props["experience"].(map[string]any)["items"].(map[string]any)
	require.Equal(t, []string{"company", "dates", "details", "title"}, exp["required"])

	lenient := ValidationSchema()
	_, hasRequired := lenient["required"]
	require.False(t, hasRequired)
}
