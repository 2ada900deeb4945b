// Package builtin contains the record transformations shared by the
// reconciler and the loader.
//
// DeDup collapses records that share a key and keeps the earliest occurrence.
// Keys are hashed with xxh3-128 over the length-prefixed encoding from
// records.EncodeRow. Records whose hashes collide are still compared byte for
// byte, so two records are duplicates only when every key field is identical
// (NULL differs from "").
//
// Setting Keys to every column of a frame gives exact-row de-duplication.
package builtin

import (
	"bytes"

	"github.com/zeebo/xxh3"

	"olympics/internal/records"
)

// DeDup keeps the first record for every distinct key.
type DeDup struct {
	// Keys are the field names that form the business key, e.g.
	// ["NAME","SEX","NOC","TEAM"].
	Keys []string
}

// Apply returns a new slice holding the first record of each key in input
// order. Records lacking one of the key fields are passed through at the end.
func (d DeDup) Apply(in []records.Record) []records.Record {
	out, _ := d.ApplyCount(in)
	return out
}

// ApplyCount is Apply that also reports how many records were collapsed.
func (d DeDup) ApplyCount(in []records.Record) ([]records.Record, int) {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in, 0
	}

	// Buckets are keyed by hash; each bucket holds the distinct encodings with
	// that hash (almost always exactly one).
	buckets := make(map[xxh3.Uint128][][]byte, len(in))
	out := make([]records.Record, 0, len(in))
	var passthrough []records.Record
	collapsed := 0

	for _, r := range in {
		enc, ok := d.encode(r)
		if !ok {
			passthrough = append(passthrough, r)
			continue
		}
		h := xxh3.Hash128(enc)

		dup := false
		for _, seen := range buckets[h] {
			if bytes.Equal(seen, enc) {
				dup = true
				break
			}
		}
		if dup {
			collapsed++
			continue
		}
		buckets[h] = append(buckets[h], enc)
		out = append(out, r)
	}
	return append(out, passthrough...), collapsed
}

func (d DeDup) encode(r records.Record) ([]byte, bool) {
	for _, k := range d.Keys {
		if _, ok := r[k]; !ok {
			return nil, false
		}
	}
	return records.EncodeRow(r, d.Keys), true
}
