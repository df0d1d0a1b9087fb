package entity

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Identified is a record with an identity. ExternalID is the identity
// assigned by the UI binding and may be empty; ContentHash is derived from
// what the record shows. Implementations are pointer types, so two distinct
// instances are distinguishable by reference.
type Identified interface {
	Record
	ExternalID() string
	ContentHash() string
}

// Equal compares two records by identity: external ids when either carries
// one, otherwise content hashes when hashMode is on, otherwise reference
// identity. A record with an id never equals one without.
func Equal(a, b Identified, hashMode bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ida, idb := a.ExternalID(), b.ExternalID()
	if ida != "" || idb != "" {
		return ida == idb
	}
	if hashMode {
		return a.ContentHash() == b.ContentHash()
	}
	return a == b
}

type idKey string
type hashKey string

// Key returns a comparable value usable as a map key. Two records have equal
// keys exactly when Equal reports them equal under the same hashMode.
func Key(r Identified, hashMode bool) any {
	if id := r.ExternalID(); id != "" {
		return idKey(id)
	}
	if hashMode {
		return hashKey(r.ContentHash())
	}
	return r
}

// ContentHash hashes text as shown inside a box of the given extent, so the
// same words rendered at a different size hash differently.
func ContentHash(width, height int, text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(hashText(width, height, text)))
}

func hashText(width, height int, text string) string {
	return fmt.Sprintf("(%d,%d)%s", height, width, text)
}
