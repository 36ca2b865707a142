package driver

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracerWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewTracer(&buf)

	tracer.Record(TraceEntry{Driver: "openai", Endpoint: "/chat/completions", Response: json.RawMessage(`{"ok":true}`)})
	tracer.Record(TraceEntry{Driver: "openai", StatusCode: 502, Response: json.RawMessage("Bad Gateway")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var second TraceEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, 502, second.StatusCode)
	require.Equal(t, `"Bad Gateway"`, string(second.Response))
	require.False(t, second.Timestamp.IsZero())
}

func TestNilTracerIsNoop(t *testing.T) {
	var tracer *Tracer
	tracer.Record(TraceEntry{Driver: "openai"})
	require.NoError(t, tracer.Close())
}
