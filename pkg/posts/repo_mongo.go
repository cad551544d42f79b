package posts

import (
	"context"
	"math"

	"anonforum/pkg/common"
	"anonforum/pkg/votes"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostsRepoMongo struct {
	collection common.CollectionHelper
}

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(uri))
}

func NewPostsRepoMongo(db *mongo.Database) *PostsRepoMongo {
	return &PostsRepoMongo{collection: &common.MongoCollection{Collection: db.Collection("posts")}}
}

// GetPage returns one page of posts, best-scored first, newest first
// within equal scores, plus the total page count for the filter.
// page is 1-based.
func (r *PostsRepoMongo) GetPage(ctx context.Context, category string, page, limit int64) ([]*Post, int64, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().
		SetSort(bson.D{{"voteScore", -1}, {"created", -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	posts, err := r.getByFilter(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	totalPages := int64(math.Ceil(float64(count) / float64(limit)))
	return posts, totalPages, nil
}

func (r *PostsRepoMongo) GetByAuthorID(ctx context.Context, authorID int64) ([]*Post, error) {
	return r.getByFilter(ctx, bson.M{"authorID": authorID})
}

func (r *PostsRepoMongo) GetByID(ctx context.Context, id interface{}) (*Post, error) {
	res := r.collection.FindOne(ctx, bson.M{"_id": id})

	post := &Post{}
	err := res.Decode(post)
	if err == mongo.ErrNoDocuments {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (r *PostsRepoMongo) Add(ctx context.Context, p *Post) (interface{}, error) {
	res, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return nil, err
	}

	return res.GetInsertedID(), nil
}

func (r *PostsRepoMongo) Delete(ctx context.Context, id interface{}) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}

	if res.GetDeletedCount() == 0 {
		return false, nil
	}

	return true, nil
}

// UpdateVotes rewrites the post's vote sets and derived score in one
// single-document update.
func (r *PostsRepoMongo) UpdateVotes(ctx context.Context, id interface{}, b *votes.Ballot) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
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

func (r *PostsRepoMongo) ParseID(in string) (interface{}, error) {
	return primitive.ObjectIDFromHex(in)
}

func (r *PostsRepoMongo) getByFilter(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*Post, error) {
	cur, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	defer cur.Close(ctx)

	var posts []*Post
	err = cur.All(ctx, &posts)
	if err != nil {
		return nil, err
	}

	return posts, nil
}
