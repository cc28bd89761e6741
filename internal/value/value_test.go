package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{
			name:  "json object",
			input: `{"type": "string", "x-status": "deprecated", "minLength": 2}`,
			want: Object{
				"type":      String("string"),
				"x-status":  String("deprecated"),
				"minLength": Number(2),
			},
		},
		{
			name: "yaml nested",
			input: `
required: [id, name]
deprecated: true
nullable: null
`,
			want: Object{
				"required":   Array{String("id"), String("name")},
				"deprecated": Bool(true),
				"nullable":   Null{},
			},
		},
		{
			name:  "scalar",
			input: `1.5`,
			want:  Number(1.5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestFromAnyRejectsUnsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	assert.Error(t, err)

	_, err = FromAny([]any{"ok", make(chan int)})
	assert.ErrorContains(t, err, "index 1")
}

func TestToAnyRoundTrip(t *testing.T) {
	original := Object{
		"count": Number(3),
		"ratio": Number(0.25),
		"tags":  Array{String("a"), Bool(false)},
		"none":  Null{},
	}

	back, err := FromAny(ToAny(original))
	require.NoError(t, err)
	assert.True(t, Equal(original, back))

	plain := ToAny(original).(map[string]any)
	assert.Equal(t, int64(3), plain["count"])
	assert.Equal(t, 0.25, plain["ratio"])
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", nil, true},
		{"null", Null{}, true},
		{"empty string", String(""), true},
		{"empty array", Array{}, true},
		{"empty object", Object{}, true},
		{"false is meaningful", Bool(false), false},
		{"zero is meaningful", Number(0), false},
		{"text", String("deprecated"), false},
		{"object with member", Object{"a": Null{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.v))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null{}))
	assert.False(t, Equal(String("1"), Number(1)))
	assert.False(t, Equal(Array{Number(1)}, Array{Number(1), Number(2)}))
	assert.False(t, Equal(Object{"a": Number(1)}, Object{"b": Number(1)}))
	assert.True(t, Equal(Object{"a": Array{Null{}}}, Object{"a": Array{Null{}}}))
}

func TestSortedKeysAndText(t *testing.T) {
	obj := Object{"b": Null{}, "a": Null{}, "c": Null{}}
	assert.Equal(t, []string{"a", "b", "c"}, obj.SortedKeys())

	assert.Equal(t, "2", Text(Number(2)))
	assert.Equal(t, "true", Text(Bool(true)))
	assert.Equal(t, "object", Text(obj))
	assert.Equal(t, "null", Text(nil))
}
