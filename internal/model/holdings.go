package model

// TokenAccount is one raw SPL token account as reported by the chain.
// Supply is the raw integer amount of the account; a token with a supply of
// exactly 1 and 0 decimals is treated as non-fungible, the same way Phantom
// classifies NFTs.
type TokenAccount struct {
	Mint        string
	AmountOwned float64
	Decimals    int
	Supply      uint64
}

// NftMetadata is the on-chain metadata for a single mint.
type NftMetadata struct {
	Symbol   string
	Creators []string
}

// FungibleToken is one entry of the persisted tokensOwnedByMint map.
// The ammountOwned spelling is part of the stored record contract.
type FungibleToken struct {
	IsFungible  bool    `json:"isFungible"`
	Mint        string  `json:"mint"`
	AmountOwned float64 `json:"ammountOwned"`
}

// NftCollection is one entry of the persisted tokensOwnedByCollection map.
type NftCollection struct {
	CollectionID string   `json:"collectionId"`
	Symbol       string   `json:"symbol"`
	CreatorMints []string `json:"creatorMints"`
	TokensOwned  []string `json:"tokensOwned"`
}

// HoldingsSnapshot is the full holdings picture for one wallet, rebuilt
// wholesale on each refresh.
type HoldingsSnapshot struct {
	Fungible       map[string]FungibleToken `json:"tokensOwnedByMint"`
	NftCollections map[string]NftCollection `json:"tokensOwnedByCollection"`
}
