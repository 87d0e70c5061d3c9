package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// algorithm to change without colliding with older digests.
const (
	DomainSnapshot   = "rollcall/snapshot/v1"
	DomainCollection = "rollcall/collection/v1"
	DomainDocument   = "rollcall/document/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashBytes returns the hex SHA-256 of already-encoded data under domain.
func HashBytes(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

// Digest returns the hex SHA-256 of v's canonical JSON under domain.
func Digest(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// CollectionDigest digests an ordered list of records.
func CollectionDigest(objs []Object) (string, error) {
	arr := make(Array, len(objs))
	for i, obj := range objs {
		arr[i] = obj
	}
	return Digest(DomainCollection, arr)
}
