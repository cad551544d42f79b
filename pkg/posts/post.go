package posts

import (
	"time"

	"anonforum/pkg/votes"
)

type PostCategory string

const (
	All         PostCategory = "all"
	Music                    = "music"
	Funny                    = "funny"
	Videos                   = "videos"
	Programming              = "programming"
	News                     = "news"
	Fashion                  = "fashion"
)

// Post is authored by exactly one of a registered user (AuthorID > 0)
// or an anonymous identity (AnonymousID set). DeleteToken is present
// iff the post is anonymous and is disclosed to the creator once.
type Post struct {
	ID           interface{}  `bson:"_id,omitempty"`
	Title        string       `bson:"title"`
	Content      string       `bson:"content"`
	Category     PostCategory `bson:"category"`
	AuthorID     int64        `bson:"authorID,omitempty"`
	AnonymousID  string       `bson:"anonymousID,omitempty"`
	DeleteToken  string       `bson:"deletionToken,omitempty"`
	votes.Ballot `bson:",inline"`
	Created      time.Time `bson:"created"`
}

func (p *Post) OwnerID() int64 {
	return p.AuthorID
}

func (p *Post) DeletionToken() string {
	return p.DeleteToken
}

func (p *Post) Anonymous() bool {
	return p.AuthorID == 0
}
