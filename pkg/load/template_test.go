package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/itemdex/pkg/types"
)

func templateItem(t *testing.T) *types.Item {
	t.Helper()
	item, err := types.New(types.ItemSchema(), map[string]any{
		"name":     "motor_1",
		"position": 10,
		"ratio":    2.5,
	})
	require.NoError(t, err)
	return item
}

func TestFillTemplate(t *testing.T) {
	item := templateItem(t)

	tests := []struct {
		name     string
		template string
		want     any
		wantErr  bool
	}{
		{name: "no macro passes through", template: "plain string", want: "plain string"},
		{name: "lone macro keeps native string", template: "{{name}}", want: "motor_1"},
		{name: "lone macro keeps native int", template: "{{position}}", want: 10},
		{name: "lone macro keeps native float", template: "{{ratio}}", want: 2.5},
		{name: "whitespace inside braces", template: "{{ name }}", want: "motor_1"},
		{name: "embedded macro renders to string", template: "PV:{{name}}:RBV", want: "PV:motor_1:RBV"},
		{name: "several macros", template: "{{name}}@{{position}}", want: "motor_1@10"},
		{name: "unknown field is an error", template: "{{nonexistent}}", wantErr: true},
		{name: "unknown field inside text is an error", template: "PV:{{nonexistent}}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FillTemplate(tt.template, item)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstituteRecursesCollections(t *testing.T) {
	l := New()
	item := templateItem(t)

	got, err := l.substitute([]any{
		"{{name}}",
		map[string]any{"pv": "PV:{{name}}", "depth": []any{"{{position}}"}},
		42,
	}, item)
	require.NoError(t, err)

	assert.Equal(t, []any{
		"motor_1",
		map[string]any{"pv": "PV:motor_1", "depth": []any{10}},
		42,
	}, got)
}
