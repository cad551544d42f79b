package comments

import (
	"context"

	"anonforum/pkg/common"
	"anonforum/pkg/votes"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentsRepoMongo struct {
	collection common.CollectionHelper
}

func NewCommentsRepoMongo(db *mongo.Database) *CommentsRepoMongo {
	return &CommentsRepoMongo{collection: &common.MongoCollection{Collection: db.Collection("comments")}}
}

// TopLevel returns the comments attached directly to a post. Tie order
// within equal scores under SortTop is whatever storage yields.
func (repo *CommentsRepoMongo) TopLevel(ctx context.Context, postID interface{}, sort SortMode) ([]*Comment, error) {
	var sortDoc bson.D
	switch sort {
	case SortNew:
		sortDoc = bson.D{{"created", -1}}
	case SortOld:
		sortDoc = bson.D{{"created", 1}}
	default:
		sortDoc = bson.D{{"voteScore", -1}}
	}

	return repo.getByFilter(ctx, bson.M{"postID": postID, "parentID": nil},
		options.Find().SetSort(sortDoc))
}

// Replies returns the direct children of a comment, best first, oldest
// first within equal scores. The order is fixed, not caller-selectable.
func (repo *CommentsRepoMongo) Replies(ctx context.Context, commentID interface{}) ([]*Comment, error) {
	return repo.getByFilter(ctx, bson.M{"parentID": commentID},
		options.Find().SetSort(bson.D{{"voteScore", -1}, {"created", 1}}))
}

func (repo *CommentsRepoMongo) GetByPostID(ctx context.Context, postID interface{}) ([]*Comment, error) {
	return repo.getByFilter(ctx, bson.M{"postID": postID})
}

func (repo *CommentsRepoMongo) GetByID(ctx context.Context, id interface{}) (*Comment, error) {
	res := repo.collection.FindOne(ctx, bson.M{"_id": id})

	comment := &Comment{}
	err := res.Decode(comment)
	if err == mongo.ErrNoDocuments {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (repo *CommentsRepoMongo) Add(ctx context.Context, comment *Comment) (interface{}, error) {
	res, err := repo.collection.InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}

	return res.GetInsertedID(), nil
}

// MarkDeleted tombstones a comment in place: the record stays so the
// reply tree keeps its shape, only the content is blanked out.
func (repo *CommentsRepoMongo) MarkDeleted(ctx context.Context, id interface{}) error {
	res, err := repo.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.D{
			{"$set", bson.D{
				{"isDeleted", true},
				{"content", DeletedBody},
			}},
		})
	if err != nil {
		return err
	}

	if res.GetMatchedCount() == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (repo *CommentsRepoMongo) UpdateVotes(ctx context.Context, id interface{}, b *votes.Ballot) error {
	res, err := repo.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.D{
			{"$set", bson.D{
				{"upvotes", b.Upvotes},
				{"downvotes", b.Downvotes},
				{"voteScore", b.Score},
			}},
		})
	if err != nil {
		return err
	}

	if res.GetMatchedCount() == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (repo *CommentsRepoMongo) ParseID(in string) (interface{}, error) {
	return primitive.ObjectIDFromHex(in)
}

func (repo *CommentsRepoMongo) getByFilter(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*Comment, error) {
	cur, err := repo.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	defer cur.Close(ctx)

	var comments []*Comment
	err = cur.All(ctx, &comments)
	if err != nil {
		return nil, err
	}

	return comments, nil
}
