// Package tokengate decides whether a wallet's holdings satisfy a content
// item's access policy.
package tokengate

import "github.com/qwestive/qwestive-api/internal/model"

// Policy is the access requirement carried on a content record. AccessID is
// either a fungible token mint or an NFT collection identifier.
type Policy struct {
	AccessID             string
	MinimumAccessBalance float64
}

// HasAccess checks the fungible balance first, then the NFT collection
// membership count. The comparison is strictly greater than the minimum: a
// policy requiring "at least N" must set MinimumAccessBalance to N-1.
func HasAccess(holdings model.HoldingsSnapshot, policy Policy) bool {
	if token, ok := holdings.Fungible[policy.AccessID]; ok {
		if token.AmountOwned > policy.MinimumAccessBalance {
			return true
		}
	}
	if coll, ok := holdings.NftCollections[policy.AccessID]; ok {
		if float64(len(coll.TokensOwned)) > policy.MinimumAccessBalance {
			return true
		}
	}
	return false
}
