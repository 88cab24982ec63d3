package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordClone(t *testing.T) {
	rec := Record{
		"name":   "motor_1",
		"args":   []any{"a", []any{"nested"}},
		"kwargs": map[string]any{"inner": map[string]any{"deep": 1}},
	}

	cp := rec.Clone()
	assert.Equal(t, rec, cp)

	cp["args"].([]any)[0] = "mutated"
	cp["kwargs"].(map[string]any)["inner"].(map[string]any)["deep"] = 99

	assert.Equal(t, "a", rec["args"].([]any)[0])
	assert.Equal(t, 1, rec["kwargs"].(map[string]any)["inner"].(map[string]any)["deep"])
}

func TestRecordCloneNil(t *testing.T) {
	var rec Record
	assert.Nil(t, rec.Clone())
}
