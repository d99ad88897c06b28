package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.ElementsMatch(t, []string{"a"}, RequiredFields(schema))
	assert.Equal(t, []string{"a", "b", "c"}, PropertyNames(schema))
}

func TestValidateParameters(t *testing.T) {
	for name, required := range map[string]any{
		"decoded": []any{"x"},
		"typed":   []string{"x"},
	} {
		t.Run(name, func(t *testing.T) {
			schema := map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{"type": "integer"},
				},
				"required": required,
			}

			assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
			assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5)}, schema))

			err := ValidateParameters(map[string]any{}, schema)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "x", vErr.Field)

			err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Message, "expected type integer")
		})
	}
}

type schemaEdges struct {
	Count   uint8             `json:"count"`
	Ratio   float32           `json:"ratio"`
	Tags    []string          `json:"tags,omitempty"`
	Meta    map[string]string `json:"meta"`
	Hidden  string            `json:"-"`
	Dash    string            `json:"-,"`
	NoTag   bool
	private int
}

func TestCreateSchema_Types(t *testing.T) {
	schema := CreateSchema(&schemaEdges{})
	props := schema["properties"].(map[string]any)

	typeOf := func(name string) string {
		return props[name].(map[string]any)["type"].(string)
	}

	assert.Equal(t, "integer", typeOf("count"))
	assert.Equal(t, "number", typeOf("ratio"))
	assert.Equal(t, "array", typeOf("tags"))
	assert.Equal(t, "object", typeOf("meta"))
	assert.Equal(t, "boolean", typeOf("NoTag"))
	assert.Contains(t, props, "-")
	assert.NotContains(t, props, "Hidden")
	assert.NotContains(t, props, "private")
	assert.Equal(t, []string{"count", "ratio", "meta", "-", "NoTag"}, RequiredFields(schema))

	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, CreateSchema(42))
}

func TestValidateParameters_Types(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"n": map[string]any{"type": "integer"},
			"f": map[string]any{"type": "number"},
			"s": map[string]any{"type": "string"},
			"x": map[string]any{"type": "custom"},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"n": int64(1), "f": 3, "s": "ok", "x": 1, "extra": true}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"n": nil, "f": float32(1.5)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"n": 5.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"f": "1"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"s": 1}, schema))
}

func TestPropertyNames_Empty(t *testing.T) {
	assert.Empty(t, PropertyNames(nil))
	assert.Empty(t, PropertyNames(map[string]any{"type": "object"}))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("Tools: {{join \", \" .tools}} for {{default \"anyone\" .user}}", map[string]any{
		"tools": []string{"add", "mul"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tools: add, mul for anyone", out)

	out, err = RenderTemplate("{{upper .name}} & <b>", map[string]any{"name": "calc"})
	require.NoError(t, err)
	assert.Equal(t, "CALC & <b>", out)

	_, err = RenderTemplate("{{.broken", nil)
	assert.Error(t, err)
}
