package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"ulid", "tab_01HZY3K6V1Q8N0J2M4R5T7W9XB", true, false},
		{"slug", "general-channel", true, false},
		{"empty optional", "", false, false},
		{"empty required", "", true, true},
		{"slash", "a/b", true, true},
		{"colon", "ws:1", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, ValidateString("héllo", "title", 1, 5, true))
	assert.Error(t, ValidateString("héllo!", "title", 1, 5, true))
	assert.Error(t, ValidateString("a\x00b", "title", 0, 10, false))
	assert.Error(t, ValidateString("\xff", "title", 0, 10, false))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath(""))
	assert.NoError(t, ValidatePath("/channels/general"))
	assert.Error(t, ValidatePath("/a\nb"))
	assert.Error(t, ValidatePath("/"+strings.Repeat("p", MaxPathLength)))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Morning standup", "name"))
	assert.Error(t, ValidateName("   ", "name"))
}

func TestValidateContext(t *testing.T) {
	assert.NoError(t, ValidateContext(nil))
	assert.NoError(t, ValidateContext(map[string]interface{}{"taskId": "T-1", "filters": []interface{}{"open"}}))

	big := map[string]interface{}{"blob": strings.Repeat("x", MaxContextSize)}
	assert.Error(t, ValidateContext(big))

	var deep interface{} = "leaf"
	for i := 0; i < MaxJSONDepth+2; i++ {
		deep = map[string]interface{}{"n": deep}
	}
	assert.Error(t, ValidateContext(deep.(map[string]interface{})))
}

func TestHashJSONIsDeterministic(t *testing.T) {
	h := DefaultHasher()
	a, err := h.HashJSON(map[string]interface{}{"b": 1, "a": []string{"x"}})
	assert.NoError(t, err)
	b, err := h.HashJSON(map[string]interface{}{"a": []string{"x"}, "b": 1})
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, _ := h.HashJSON(map[string]interface{}{"a": []string{"y"}, "b": 1})
	assert.NotEqual(t, a, c)
}

func TestETag(t *testing.T) {
	hash := DefaultHasher().HashString("layout")
	tag := ETag(hash)
	assert.Equal(t, `"`+hash[:32]+`"`, tag)
	assert.Equal(t, `"abc"`, ETag("abc"))
}
