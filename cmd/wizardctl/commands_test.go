package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "keystone/internal/jwt_token"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSchemaCommandListsSections(t *testing.T) {
	out, _, err := execute(t, "", "schema", "sponsor")
	require.NoError(t, err)
	assert.Contains(t, out, "company-overview")
	assert.Contains(t, out, "review-and-submit")
}

func TestSchemaCommandRejectsUnknownRole(t *testing.T) {
	_, _, err := execute(t, "", "schema", "broker")
	assert.Error(t, err)
}

func TestProgressCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		phase    int
		section  int
		inSchema bool
	}{
		{name: "schema mode first step", args: []string{"progress", "sponsor", "1"}, phase: 1, section: 0, inSchema: true},
		{name: "schema mode crosses phases", args: []string{"progress", "sponsor", "6"}, phase: 2, section: 0, inSchema: true},
		{name: "legacy mode uses fixed density", args: []string{"progress", "sponsor", "7", "--mode", "legacy"}, phase: 2, section: 1, inSchema: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			require.NoError(t, err)

			var got struct {
				Position struct {
					Phase   int `json:"phase"`
					Section int `json:"section"`
				} `json:"position"`
				InSchema bool `json:"inSchema"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.phase, got.Position.Phase)
			assert.Equal(t, tt.section, got.Position.Section)
			assert.Equal(t, tt.inSchema, got.InSchema)
		})
	}
}

func TestProgressCommandRejectsBadStep(t *testing.T) {
	_, _, err := execute(t, "", "progress", "sponsor", "three")
	assert.Error(t, err)
}

func TestTransformCommandMapsKeys(t *testing.T) {
	out, _, err := execute(t, `{"company_name":"Acme Capital"}`, "transform", "business-information")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "Acme Capital", payload["legal_name"])
	assert.NotContains(t, payload, "company_name")
}

func TestUntransformCommandRestoresKeys(t *testing.T) {
	out, _, err := execute(t, `{"legal_name":"Acme Capital"}`, "untransform", "business-information")
	require.NoError(t, err)

	var answers map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &answers))
	assert.Equal(t, "Acme Capital", answers["company_name"])
}

func TestTransformCommandUnknownTable(t *testing.T) {
	_, _, err := execute(t, `{}`, "transform", "nope")
	assert.Error(t, err)
}

func TestTokenCommandMintsValidToken(t *testing.T) {
	out, _, err := execute(t, "", "token", "ada@example.com", "--key", "test-key")
	require.NoError(t, err)

	identity, err := jwttoken.NewJWTService("test-key", "", "").ValidateIdentity(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", identity)
}
