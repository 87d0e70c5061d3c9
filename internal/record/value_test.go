package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalValue_NumberKinds(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"grade":3,"score":91.5,"big":1e3,"ok":true,"none":null}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Int(3), obj["grade"])
	assert.Equal(t, Float(91.5), obj["score"])
	assert.Equal(t, Float(1000), obj["big"])
	assert.Equal(t, Bool(true), obj["ok"])
	assert.Equal(t, Null{}, obj["none"])
}

func TestObjectJSON_SortedKeysAndUnknownFieldsRoundTrip(t *testing.T) {
	in := `{"zeta":"z","id":"g1","nested":{"b":1,"a":[1,"x",false]}}`

	var obj Object
	require.NoError(t, json.Unmarshal([]byte(in), &obj))

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"g1","nested":{"a":[1,"x",false],"b":1},"zeta":"z"}`, string(out))
}

func TestObjectUnmarshal_RejectsNonObject(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}

func TestFromAny_YAMLShapes(t *testing.T) {
	v, err := FromAny(map[string]any{
		"id":    "s1",
		"grade": 4,
		"gpa":   3.7,
		"tags":  []any{"ell", "iep"},
		"meta":  map[string]any{"room": nil},
	})
	require.NoError(t, err)

	want := Object{
		"id":    String("s1"),
		"grade": Int(4),
		"gpa":   Float(3.7),
		"tags":  Strings("ell", "iep"),
		"meta":  Object{"room": Null{}},
	}
	assert.Equal(t, want, v)
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestToAny_InvertsFromAny(t *testing.T) {
	obj := Object{
		"id":   String("g1"),
		"n":    Int(2),
		"f":    Float(0.25),
		"tags": Strings("a"),
		"nil":  Null{},
	}
	got := ToAny(obj).(map[string]any)
	assert.Equal(t, "g1", got["id"])
	assert.Equal(t, int64(2), got["n"])
	assert.Equal(t, 0.25, got["f"])
	assert.Equal(t, []any{"a"}, got["tags"])
	assert.Nil(t, got["nil"])
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"nil", nil, ""},
		{"null", Null{}, ""},
		{"string", String("Read fluently"), "Read fluently"},
		{"int", Int(-7), "-7"},
		{"float", Float(2.5), "2.5"},
		{"bool", Bool(false), "false"},
		{"array", Strings("ell", "iep"), "ell; iep"},
		{"object", Object{"b": Int(1), "a": String("<x>")}, `{"a":"<x>","b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}
