// Package record provides the schema-less record model shared by every
// rollcall package.
//
// A record is an Object: a map from field name to a sealed Value. The engine
// only requires the "id" field; every other field is opaque and round-trips
// untouched through merges, clones and the JSON codec.
//
// record imports nothing internal. All other internal packages import it.
//
// Key constraints:
//   - Values are treated as immutable once stored; mutate only fresh clones
//   - Clone is deep, Merge is shallow over the base and deep over the patch
//   - MarshalCanonical is the only serialization used for digests
package record
