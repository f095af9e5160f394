// Package holdings rebuilds a wallet's token holdings from chain data:
// fungible balances keyed by mint, and NFTs grouped into collections by a
// deterministic identifier derived from symbol and creator set.
package holdings

import (
	"context"
	"fmt"
	"sort"

	"github.com/labstack/gommon/log"

	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/pkg/collection"
)

// LamportsPerSol converts the native balance to whole SOL.
const LamportsPerSol = 1_000_000_000

// NativeMint keys the injected native balance in the fungible map.
const NativeMint = "SOL"

type ChainReader interface {
	TokenAccounts(ctx context.Context, address string) ([]model.TokenAccount, error)
	NativeBalance(ctx context.Context, address string) (uint64, error)
	NftMetadata(ctx context.Context, mint string) (*model.NftMetadata, error)
}

type RecordStore interface {
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
}

type service struct {
	store RecordStore
	chain ChainReader
}

func New(store RecordStore, chain ChainReader) *service {
	return &service{store: store, chain: chain}
}

// Refresh rebuilds the whole snapshot for the wallet and persists it on the
// user record. The previous snapshot is replaced, not merged.
func (s *service) Refresh(ctx context.Context, userID model.UserID) (*model.HoldingsSnapshot, error) {
	accounts, err := s.chain.TokenAccounts(ctx, string(userID))
	if err != nil {
		return nil, fmt.Errorf("fetching token accounts for %s: %v: %w", userID, err, model.ErrorUnavailable)
	}
	lamports, err := s.chain.NativeBalance(ctx, string(userID))
	if err != nil {
		return nil, fmt.Errorf("fetching native balance for %s: %v: %w", userID, err, model.ErrorUnavailable)
	}

	fungible, nonFungible := classify(accounts)
	fungible[NativeMint] = model.FungibleToken{
		IsFungible:  true,
		Mint:        NativeMint,
		AmountOwned: float64(lamports) / LamportsPerSol,
	}

	collections := s.buildCollections(ctx, nonFungible)

	snapshot := &model.HoldingsSnapshot{Fungible: fungible, NftCollections: collections}
	err = s.store.Update(ctx, model.CollectionUsers, string(userID), map[string]interface{}{
		"tokensOwnedByMint":       snapshot.Fungible,
		"tokensOwnedByCollection": snapshot.NftCollections,
	})
	if err != nil {
		return nil, fmt.Errorf("storing holdings for %s: %w", userID, err)
	}

	return snapshot, nil
}

// classify splits raw accounts into fungible balances and NFT candidates. A
// token is non-fungible iff its supply is exactly 1 with 0 decimals.
func classify(accounts []model.TokenAccount) (map[string]model.FungibleToken, []model.TokenAccount) {
	fungible := map[string]model.FungibleToken{}
	nonFungible := []model.TokenAccount{}

	for _, account := range accounts {
		if account.Mint == "" || account.AmountOwned <= 0 {
			continue
		}
		if account.Supply == 1 && account.Decimals == 0 {
			nonFungible = append(nonFungible, account)
			continue
		}
		fungible[account.Mint] = model.FungibleToken{
			IsFungible:  true,
			Mint:        account.Mint,
			AmountOwned: account.AmountOwned,
		}
	}

	return fungible, nonFungible
}

type metadataResult struct {
	mint string
	meta *model.NftMetadata
	err  error
}

// buildCollections fetches metadata for every mint concurrently and reduces
// the results into collection buckets on this goroutine once all fetches
// settle. A failed fetch drops only that mint.
func (s *service) buildCollections(ctx context.Context, tokens []model.TokenAccount) map[string]model.NftCollection {
	results := make(chan metadataResult, len(tokens))
	for _, token := range tokens {
		go func(mint string) {
			meta, err := s.chain.NftMetadata(ctx, mint)
			results <- metadataResult{mint: mint, meta: meta, err: err}
		}(token.Mint)
	}

	collections := map[string]model.NftCollection{}
	for range tokens {
		result := <-results
		if result.err != nil {
			log.Warnf("fetching metadata for mint %s: %v", result.mint, result.err)
			continue
		}

		id := collection.ID(result.meta.Symbol, result.meta.Creators)
		bucket, ok := collections[id]
		if !ok {
			bucket = model.NftCollection{
				CollectionID: id,
				Symbol:       result.meta.Symbol,
				CreatorMints: collection.SortedCreators(result.meta.Creators),
			}
		}
		bucket.TokensOwned = append(bucket.TokensOwned, result.mint)
		collections[id] = bucket
	}

	// Fetches complete in arbitrary order; sort for a stable record.
	for id, bucket := range collections {
		sort.Strings(bucket.TokensOwned)
		collections[id] = bucket
	}

	return collections
}
