package repository

import (
	"context"
	"time"

	"prsentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TransactionRepo interface {
	Create(ctx context.Context, txn *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, limit int) ([]model.Transaction, error)
	Update(ctx context.Context, txn *model.Transaction) error
	Delete(ctx context.Context, id string) error

	// SearchProblem finds transactions that are in a problem status or whose
	// description / flagged reason matches any of the search terms.
	SearchProblem(ctx context.Context, terms []string, limit int) ([]model.Transaction, error)
}

type transactionRepo struct {
	collection *mongo.Collection
}

func NewTransactionRepo(db *mongo.Database) TransactionRepo {
	return &transactionRepo{collection: db.Collection("transactions")}
}

func (r *transactionRepo) Create(ctx context.Context, txn *model.Transaction) error {
	_, err := r.collection.InsertOne(ctx, txn)
	return err
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) List(ctx context.Context, limit int) ([]model.Transaction, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	txns := []model.Transaction{}
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepo) Update(ctx context.Context, txn *model.Transaction) error {
	txn.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": txn.ID}, txn)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepo) SearchProblem(ctx context.Context, terms []string, limit int) ([]model.Transaction, error) {
	or := []bson.M{
		{"status": bson.M{"$in": []model.TransactionStatus{
			model.TxnFlagged, model.TxnInProcess, model.TxnPending, model.TxnFailed,
		}}},
	}
	for _, term := range terms {
		if term == "" {
			continue
		}
		pattern := primitive.Regex{Pattern: regexQuote(term), Options: "i"}
		or = append(or,
			bson.M{"description": pattern},
			bson.M{"flagged_reason": pattern},
		)
	}

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"$or": or}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	txns := []model.Transaction{}
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}
