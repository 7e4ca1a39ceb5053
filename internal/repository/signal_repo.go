package repository

import (
	"context"
	"prsentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SignalRepo interface {
	Create(ctx context.Context, signal *model.Signal) error
	GetByID(ctx context.Context, id string) (*model.Signal, error)
	List(ctx context.Context, limit int) ([]model.Signal, error)
	Delete(ctx context.Context, id string) error
}

type signalRepo struct {
	collection *mongo.Collection
}

func NewSignalRepo(db *mongo.Database) SignalRepo {
	return &signalRepo{collection: db.Collection("signals")}
}

func (r *signalRepo) Create(ctx context.Context, signal *model.Signal) error {
	_, err := r.collection.InsertOne(ctx, signal)
	return err
}

func (r *signalRepo) GetByID(ctx context.Context, id string) (*model.Signal, error) {
	var signal model.Signal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&signal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &signal, nil
}

func (r *signalRepo) List(ctx context.Context, limit int) ([]model.Signal, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	signals := []model.Signal{}
	if err := cursor.All(ctx, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *signalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
