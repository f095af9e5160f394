// Package collection derives the stable identifier that groups NFT mints
// sharing a symbol and creator set.
package collection

import (
	"sort"
	"strconv"

	"github.com/btcsuite/btcutil/base58"
	"github.com/cespare/xxhash"
)

// ID hashes the collection symbol together with the sorted creator mint
// addresses. The creator order on the mint is irrelevant: the same symbol and
// creator set always yield the same identifier.
func ID(symbol string, creatorMints []string) string {
	sorted := SortedCreators(creatorMints)

	xxxHash := xxhash.New()
	xxxHash.Write([]byte(symbol))
	xxxHash.Write([]byte(strconv.Itoa(len(sorted))))
	for _, mint := range sorted {
		xxxHash.Write([]byte(mint))
	}
	return base58.Encode(xxxHash.Sum(nil))
}

// SortedCreators returns a sorted copy, leaving the input untouched.
func SortedCreators(creatorMints []string) []string {
	sorted := append([]string(nil), creatorMints...)
	sort.Strings(sorted)
	return sorted
}
