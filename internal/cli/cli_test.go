package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flags = rootFlags{}
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "itemdex.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("backend: jsonfile\npath: db.json\n"), 0o644))
	return cfg
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:   "valid pairs",
			fields: []string{"name=motor_1", "beamline=MFX"},
			want:   map[string]any{"name": "motor_1", "beamline": "MFX"},
		},
		{
			name:   "value containing equals",
			fields: []string{"note=a=b"},
			want:   map[string]any{"note": "a=b"},
		},
		{
			name:   "empty value allowed",
			fields: []string{"documentation="},
			want:   map[string]any{"documentation": ""},
		},
		{
			name:    "missing equals rejected",
			fields:  []string{"nonsense"},
			wantErr: true,
		},
		{
			name:    "empty key rejected",
			fields:  []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFields(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	out, err := runCommand(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")
	assert.FileExists(t, path)

	// a second init on the now non-empty path refuses
	_, err = runCommand(t, "init", path)
	assert.Error(t, err)
}

func TestAddSearchDeleteFlow(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfg, "add", "--type", "Item",
		"--field", "name=motor_1", "--field", "beamline=MFX")
	require.NoError(t, err)
	assert.Contains(t, out, "added motor_1")

	_, err = runCommand(t, "--config", cfg, "add", "--type", "Item",
		"--field", "name=det_1", "--field", "beamline=XPP")
	require.NoError(t, err)

	out, err = runCommand(t, "--config", cfg, "search", "beamline=MFX")
	require.NoError(t, err)
	assert.Contains(t, out, "motor_1")
	assert.NotContains(t, out, "det_1")

	out, err = runCommand(t, "--config", cfg, "search", "--regex", "name=.*_1")
	require.NoError(t, err)
	assert.Contains(t, out, "motor_1")
	assert.Contains(t, out, "det_1")

	out, err = runCommand(t, "--config", cfg, "search", "--range", "position",
		"--start", "0", "--end", "100")
	require.NoError(t, err)
	assert.NotContains(t, out, "motor_1", "no record carries a numeric position")

	out, err = runCommand(t, "--config", cfg, "delete", "motor_1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted motor_1")

	out, err = runCommand(t, "--config", cfg, "search")
	require.NoError(t, err)
	assert.NotContains(t, out, "motor_1")
}

func TestAddRejectsDuplicate(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCommand(t, "--config", cfg, "add", "--field", "name=motor_1")
	require.NoError(t, err)

	_, err = runCommand(t, "--config", cfg, "add", "--field", "name=motor_1")
	assert.Error(t, err)
}

func TestAddRejectsMissingMandatory(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCommand(t, "--config", cfg, "add", "--type", "Device",
		"--field", "name=det_1")
	assert.Error(t, err, "Device requires a prefix")
}

func TestValidateCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCommand(t, "--config", cfg, "add", "--field", "name=motor_1")
	require.NoError(t, err)

	out, err := runCommand(t, "--config", cfg, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "all records valid")
}

func TestSearchJSONOutput(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCommand(t, "--config", cfg, "add", "--field", "name=motor_1")
	require.NoError(t, err)

	out, err := runCommand(t, "--config", cfg, "--json", "search")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))
	assert.Contains(t, out, `"motor_1"`)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "itemdex")
}
