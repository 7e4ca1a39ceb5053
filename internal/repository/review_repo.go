package repository

import (
	"context"
	"regexp"

	"prsentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepo interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	List(ctx context.Context, limit int) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error

	CountAll(ctx context.Context) (int64, error)
	CountBySentiment(ctx context.Context, sentiment string) (int64, error)
	// SearchBySentiment finds reviews matching the inferred sentiment or any
	// of the search terms in their text.
	SearchBySentiment(ctx context.Context, sentiment string, terms []string, limit int) ([]model.Review, error)
}

type reviewRepo struct {
	collection *mongo.Collection
}

func NewReviewRepo(db *mongo.Database) ReviewRepo {
	return &reviewRepo{collection: db.Collection("reviews")}
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.collection.InsertOne(ctx, review)
	return err
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) List(ctx context.Context, limit int) ([]model.Review, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *model.Review) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepo) CountAll(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *reviewRepo) CountBySentiment(ctx context.Context, sentiment string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sentiment": sentiment})
}

func (r *reviewRepo) SearchBySentiment(ctx context.Context, sentiment string, terms []string, limit int) ([]model.Review, error) {
	or := []bson.M{{"sentiment": sentiment}}
	for _, term := range terms {
		if term == "" {
			continue
		}
		or = append(or, bson.M{"review_text": primitive.Regex{
			Pattern: regexQuote(term),
			Options: "i",
		}})
	}

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"$or": or}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// regexQuote escapes user-supplied search terms before they reach a $regex
// filter.
func regexQuote(s string) string {
	return regexp.QuoteMeta(s)
}
