package votes

import (
	"anonforum/pkg/common"
)

type Kind string

const (
	Upvote   Kind = "upvote"
	Downvote Kind = "downvote"
	Remove   Kind = "remove"
)

// Ballot tracks who voted which way on a content item. It is stored
// inline in the post/comment document. Score is derived and rewritten
// on every Apply, never set directly.
type Ballot struct {
	Upvotes   []string `bson:"upvotes" json:"upvotes"`
	Downvotes []string `bson:"downvotes" json:"downvotes"`
	Score     int      `bson:"voteScore" json:"voteScore"`
}

// Apply sets the resulting vote state for voterID. The voter is first
// removed from both sets, so re-applying the same kind is idempotent;
// toggling off requires an explicit Remove.
func (b *Ballot) Apply(voterID string, kind Kind) error {
	if voterID == "" {
		return common.NewValidationError("voterId", "is required")
	}

	switch kind {
	case Upvote, Downvote, Remove:
	default:
		return common.NewValidationError("voteType", "must be one of upvote, downvote, remove")
	}

	b.Upvotes = withoutVoter(b.Upvotes, voterID)
	b.Downvotes = withoutVoter(b.Downvotes, voterID)

	switch kind {
	case Upvote:
		b.Upvotes = append(b.Upvotes, voterID)
	case Downvote:
		b.Downvotes = append(b.Downvotes, voterID)
	}

	b.Score = len(b.Upvotes) - len(b.Downvotes)
	return nil
}

// VoteOf reports the voter's current vote, Remove meaning no vote.
func (b *Ballot) VoteOf(voterID string) Kind {
	for _, v := range b.Upvotes {
		if v == voterID {
			return Upvote
		}
	}
	for _, v := range b.Downvotes {
		if v == voterID {
			return Downvote
		}
	}

	return Remove
}

func withoutVoter(voters []string, voterID string) []string {
	res := make([]string, 0, len(voters))
	for _, v := range voters {
		if v != voterID {
			res = append(res, v)
		}
	}

	return res
}
