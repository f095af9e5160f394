package tokengate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qwestive/qwestive-api/internal/model"
)

func TestHasAccess(t *testing.T) {
	assert := assert.New(t)

	holdings := model.HoldingsSnapshot{
		Fungible: map[string]model.FungibleToken{
			"M": {IsFungible: true, Mint: "M", AmountOwned: 5},
		},
		NftCollections: map[string]model.NftCollection{
			"C": {CollectionID: "C", Symbol: "DEGEN", TokensOwned: []string{"m1", "m2"}},
		},
	}

	t.Run("fungible balance equal to minimum is denied", func(t *testing.T) {
		assert.False(HasAccess(holdings, Policy{AccessID: "M", MinimumAccessBalance: 5}))
	})

	t.Run("fungible balance above minimum is granted", func(t *testing.T) {
		assert.True(HasAccess(holdings, Policy{AccessID: "M", MinimumAccessBalance: 4}))
	})

	t.Run("collection membership above minimum is granted", func(t *testing.T) {
		assert.True(HasAccess(holdings, Policy{AccessID: "C", MinimumAccessBalance: 1}))
	})

	t.Run("collection membership equal to minimum is denied", func(t *testing.T) {
		assert.False(HasAccess(holdings, Policy{AccessID: "C", MinimumAccessBalance: 2}))
	})

	t.Run("unknown access id is denied", func(t *testing.T) {
		assert.False(HasAccess(holdings, Policy{AccessID: "X", MinimumAccessBalance: 0}))
	})

	t.Run("empty holdings are denied", func(t *testing.T) {
		assert.False(HasAccess(model.HoldingsSnapshot{}, Policy{AccessID: "M", MinimumAccessBalance: 0}))
	})
}
