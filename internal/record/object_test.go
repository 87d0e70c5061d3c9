package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectID(t *testing.T) {
	assert.Equal(t, "g1", Object{"id": String("g1")}.ID())
	assert.Equal(t, "", Object{"id": Int(1)}.ID())
	assert.Equal(t, "", Object{}.ID())
}

func TestClone_IsDeep(t *testing.T) {
	orig := Object{
		"id":   String("s1"),
		"tags": Strings("a", "b"),
		"meta": Object{"room": String("12")},
	}

	cp := orig.Clone()
	cp["tags"].(Array)[0] = String("mutated")
	cp["meta"].(Object)["room"] = String("99")
	cp["id"] = String("s2")

	assert.Equal(t, String("a"), orig["tags"].(Array)[0])
	assert.Equal(t, String("12"), orig["meta"].(Object)["room"])
	assert.Equal(t, "s1", orig.ID())
}

func TestCloneAll_NeverNil(t *testing.T) {
	out := CloneAll(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMerge_PatchWinsAndBaseUntouched(t *testing.T) {
	base := Object{"id": String("g1"), "status": String("active"), "extra": Int(1)}
	patch := Object{"status": String("completed"), "tags": Strings("x")}

	merged := Merge(base, patch)

	assert.Equal(t, Object{
		"id":     String("g1"),
		"status": String("completed"),
		"extra":  Int(1),
		"tags":   Strings("x"),
	}, merged)
	assert.Equal(t, String("active"), base["status"])

	// Patch values are copied, so reusing the patch cannot leak into merged.
	patch["tags"].(Array)[0] = String("y")
	assert.Equal(t, String("x"), merged["tags"].(Array)[0])
}

func TestWith(t *testing.T) {
	base := Object{"id": String("g1")}
	next := base.With("status", String("archived"))

	assert.Equal(t, String("archived"), next["status"])
	_, present := base["status"]
	assert.False(t, present)
}
