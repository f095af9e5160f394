// Package chain reads token balances and NFT metadata from a Solana
// JSON-RPC endpoint.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/qwestive/qwestive-api/internal/model"
)

// TokenProgramID is the SPL token program owning all token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %v: %w", method, err, model.ErrorUnavailable)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: status %d: %w", method, res.StatusCode, model.ErrorUnavailable)
	}

	envelope := &rpcResponse{}
	if err := json.NewDecoder(res.Body).Decode(envelope); err != nil {
		return fmt.Errorf("decoding %s response: %v: %w", method, err, model.ErrorUnavailable)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s failed: %s: %w", method, envelope.Error.Message, model.ErrorUnavailable)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decoding %s result: %v: %w", method, err, model.ErrorUnavailable)
	}
	return nil
}

type tokenAmount struct {
	Amount   string  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string      `json:"mint"`
						TokenAmount tokenAmount `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// TokenAccounts returns the wallet's SPL token accounts with a positive
// balance.
func (c *Client) TokenAccounts(ctx context.Context, address string) ([]model.TokenAccount, error) {
	params := []interface{}{
		address,
		map[string]string{"programId": TokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}

	result := &tokenAccountsResult{}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, result); err != nil {
		return nil, err
	}

	accounts := []model.TokenAccount{}
	for _, entry := range result.Value {
		info := entry.Account.Data.Parsed.Info
		if info.Mint == "" || info.TokenAmount.UIAmount <= 0 {
			continue
		}
		supply, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			supply = 0
		}
		accounts = append(accounts, model.TokenAccount{
			Mint:        info.Mint,
			AmountOwned: info.TokenAmount.UIAmount,
			Decimals:    info.TokenAmount.Decimals,
			Supply:      supply,
		})
	}
	return accounts, nil
}

type balanceResult struct {
	Value uint64 `json:"value"`
}

// NativeBalance returns the wallet's balance in lamports.
func (c *Client) NativeBalance(ctx context.Context, address string) (uint64, error) {
	result := &balanceResult{}
	if err := c.call(ctx, "getBalance", []interface{}{address}, result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

type assetResult struct {
	Content struct {
		Metadata struct {
			Symbol string `json:"symbol"`
		} `json:"metadata"`
	} `json:"content"`
	Creators []struct {
		Address string `json:"address"`
	} `json:"creators"`
}

// NftMetadata returns the symbol and creator addresses for a mint.
func (c *Client) NftMetadata(ctx context.Context, mint string) (*model.NftMetadata, error) {
	result := &assetResult{}
	if err := c.call(ctx, "getAsset", map[string]string{"id": mint}, result); err != nil {
		return nil, err
	}

	creators := make([]string, 0, len(result.Creators))
	for _, creator := range result.Creators {
		creators = append(creators, creator.Address)
	}
	return &model.NftMetadata{Symbol: result.Content.Metadata.Symbol, Creators: creators}, nil
}
