package model

type VoteDirection int

const (
	VoteUp VoteDirection = iota
	VoteDown
)

const (
	FieldUpVoteUserIDs   = "upVoteUserIds"
	FieldDownVoteUserIDs = "downVoteUserIds"
)

// Content is a votable record, either a post or a comment. PostID is only
// set on comments and points at the post whose access policy gates the vote.
type Content struct {
	AccessID             string   `json:"accessId"`
	MinimumAccessBalance float64  `json:"minimumAccessBalance"`
	UpVoteUserIDs        []string `json:"upVoteUserIds"`
	DownVoteUserIDs      []string `json:"downVoteUserIds"`
	PostID               string   `json:"postId,omitempty"`
}
