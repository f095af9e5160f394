package model

import "time"

type UserID string // wallet address, base58-encoded ed25519 public key

const (
	CollectionUsers     = "users"
	CollectionAuthUsers = "authUsers"
	CollectionPosts     = "posts"
	CollectionComments  = "comments"
)

const (
	DefaultProfileImage = "https://firebasestorage.googleapis.com/v0/b/qwestive-beta-prod.appspot.com/o/defaultImages%2FprofileImage%2FprofilePic.png?alt=media&token=c58be011-b854-43c5-9fee-3606f44184d0"
	DefaultCoverImage   = "https://firebasestorage.googleapis.com/v0/b/qwestive-beta-prod.appspot.com/o/defaultImages%2FcoverImage%2FcoverPic.png?alt=media&token=4d20be09-f179-4414-94cd-be08ed6324d4"
)

// User is the persisted user record. Nonce is a pointer because an absent
// nonce and a zero nonce are different states for the check-in flow.
type User struct {
	Nonce                   *int                     `json:"nonce,omitempty"`
	UserName                string                   `json:"userName"`
	DisplayName             string                   `json:"displayName"`
	Bio                     string                   `json:"bio"`
	PersonalLink            string                   `json:"personalLink"`
	ProfileImage            string                   `json:"profileImage"`
	CoverImage              string                   `json:"coverImage"`
	TokensOwnedByMint       map[string]FungibleToken `json:"tokensOwnedByMint,omitempty"`
	TokensOwnedByCollection map[string]NftCollection `json:"tokensOwnedByCollection,omitempty"`
}

// AuthUser marks a wallet as registered. A record exists iff the wallet has
// completed a successful sign-in at least once.
type AuthUser struct {
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Holdings() HoldingsSnapshot {
	return HoldingsSnapshot{
		Fungible:       u.TokensOwnedByMint,
		NftCollections: u.TokensOwnedByCollection,
	}
}
