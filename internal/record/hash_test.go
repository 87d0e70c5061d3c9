package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_StableAcrossKeyOrder(t *testing.T) {
	a := Object{"id": String("g1"), "status": String("active")}
	b := Object{"status": String("active"), "id": String("g1")}

	da, err := Digest(DomainSnapshot, a)
	require.NoError(t, err)
	db, err := Digest(DomainSnapshot, b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Len(t, da, 64)
}

func TestDigest_DomainSeparation(t *testing.T) {
	v := Object{"id": String("g1")}

	snap, err := Digest(DomainSnapshot, v)
	require.NoError(t, err)
	coll, err := Digest(DomainCollection, v)
	require.NoError(t, err)

	assert.NotEqual(t, snap, coll)
}

func TestHashBytes_MatchesDigest(t *testing.T) {
	v := Array{String("a"), Int(1)}
	canonical, err := MarshalCanonical(v)
	require.NoError(t, err)

	d, err := Digest(DomainDocument, v)
	require.NoError(t, err)
	assert.Equal(t, d, HashBytes(DomainDocument, canonical))
}

func TestCollectionDigest_OrderMatters(t *testing.T) {
	a := []Object{{"id": String("1")}, {"id": String("2")}}
	b := []Object{{"id": String("2")}, {"id": String("1")}}

	da, err := CollectionDigest(a)
	require.NoError(t, err)
	db, err := CollectionDigest(b)
	require.NoError(t, err)

	assert.NotEqual(t, da, db)
}
