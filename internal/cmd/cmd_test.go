package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "github.com/resumeforge/resumeforge/internal/errors"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
	"github.com/resumeforge/resumeforge/internal/resume"
)

func TestSimulateSingleClient(t *testing.T) {
	sim, err := simulate(ratelimit.Config{Window: 5 * time.Minute, MaxRequests: 10}, 12, 1, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, sim.Steps, 12)

	admitted, rejected := sim.Totals()
	require.Equal(t, 10, admitted)
	require.Equal(t, 2, rejected)

	require.Equal(t, 9, sim.Steps[0].Remaining)
	require.Equal(t, 0, sim.Steps[9].Remaining)

	eleventh := sim.Steps[10]
	require.False(t, eleventh.Admitted)
	require.Equal(t, 100*time.Second, eleventh.Offset)
	require.Equal(t, 200*time.Second, eleventh.RetryAfter)
}

func TestSimulateWindowResets(t *testing.T) {
	sim, err := simulate(ratelimit.Config{Window: time.Minute, MaxRequests: 1}, 3, 2, 40*time.Second)
	require.NoError(t, err)
	require.Len(t, sim.Steps, 6)

	// Each client: admitted at 0s, rejected at 40s, admitted again at 80s.
	want := []bool{true, true, false, false, true, true}
	for i, step := range sim.Steps {
		require.Equal(t, want[i], step.Admitted, "step %d", i+1)
	}
	require.Equal(t, "client-1", sim.Steps[0].Identifier)
	require.Equal(t, "client-2", sim.Steps[1].Identifier)
}

func TestSimulateRejectsBadInput(t *testing.T) {
	_, err := simulate(ratelimit.Config{Window: time.Minute, MaxRequests: 1}, 0, 1, time.Second)
	require.Error(t, err)

	_, err = simulate(ratelimit.Config{Window: time.Minute, MaxRequests: 1}, 1, 1, -time.Second)
	require.Error(t, err)

	_, err = simulate(ratelimit.Config{MaxRequests: 1}, 1, 1, time.Second)
	require.Error(t, err)
}

func TestBuildInitConfig(t *testing.T) {
	data, err := buildInitConfig("")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# resumeforge config"))
	require.NotContains(t, string(data), "api_key:")

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	rl := parsed["ratelimit"].(map[string]any)
	require.Equal(t, "5m0s", rl["window"])
	require.Equal(t, 10, rl["max_requests"])

	data, err = buildInitConfig(" sk-test ")
	require.NoError(t, err)
	require.Contains(t, string(data), "api_key: sk-test")
}

func TestDecodeRenderInput(t *testing.T) {
	info, parsed, err := decodeRenderInput([]byte(`{"personalInfo":{"name":"Ada"},"resume":{"profile":" Hi "}}`))
	require.NoError(t, err)
	require.Equal(t, "Ada", info.Name)
	require.Equal(t, "Hi", parsed.Profile)

	info, parsed, err = decodeRenderInput([]byte(`{"profile":"Bare"}`))
	require.NoError(t, err)
	require.Empty(t, info.Name)
	require.Equal(t, "Bare", parsed.Profile)

	_, _, err = decodeRenderInput([]byte(`[1,2]`))
	require.Error(t, err)
}

func TestMergePersonalInfo(t *testing.T) {
	dst := resume.PersonalInfo{Name: "From File", Email: "file@example.com"}
	mergePersonalInfo(&dst, resume.PersonalInfo{Name: "From Flag"})
	require.Equal(t, "From Flag", dst.Name)
	require.Equal(t, "file@example.com", dst.Email)
}

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, foundry.ExitFailure, ExitCodeFor(errors.New("boom")))
	require.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(apperrors.NewConfigInvalidError("bad")))
	require.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(apperrors.NewExternalServiceError("down")))
}
