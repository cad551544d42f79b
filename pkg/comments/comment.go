package comments

import (
	"time"

	"anonforum/pkg/votes"
)

// DeletedBody replaces the content of a tombstoned comment.
const DeletedBody = "[deleted]"

type SortMode string

const (
	SortTop SortMode = "top"
	SortNew SortMode = "new"
	SortOld SortMode = "old"
)

// Comment refines Post with thread fields. ParentID nil means the
// comment hangs directly off the post. Tombstoned comments keep their
// id and parent linkage so descendant replies stay attached.
type Comment struct {
	ID           interface{} `bson:"_id,omitempty"`
	PostID       interface{} `bson:"postID"`
	ParentID     interface{} `bson:"parentID"`
	Content      string      `bson:"content"`
	AuthorID     int64       `bson:"authorID,omitempty"`
	AnonymousID  string      `bson:"anonymousID,omitempty"`
	DeleteToken  string      `bson:"deletionToken,omitempty"`
	votes.Ballot `bson:",inline"`
	IsDeleted    bool      `bson:"isDeleted"`
	Created      time.Time `bson:"created"`
}

func (c *Comment) OwnerID() int64 {
	return c.AuthorID
}

func (c *Comment) DeletionToken() string {
	return c.DeleteToken
}

func (c *Comment) Anonymous() bool {
	return c.AuthorID == 0
}
