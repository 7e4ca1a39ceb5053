package repository

import (
	"context"
	"time"

	"prsentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkflowRepo interface {
	Create(ctx context.Context, workflow *model.Workflow) error
	GetByID(ctx context.Context, workflowID string) (*model.Workflow, error)
	List(ctx context.Context, status model.WorkflowStatus, limit int) ([]model.Workflow, error)
	// Update replaces the workflow document and returns ErrNotFound when the
	// row has disappeared (deleted mid-pipeline).
	Update(ctx context.Context, workflow *model.Workflow) error
	Delete(ctx context.Context, workflowID string) error
	DeleteBySignal(ctx context.Context, signalID string) (int64, error)
}

type workflowRepo struct {
	collection *mongo.Collection
}

func NewWorkflowRepo(db *mongo.Database) WorkflowRepo {
	return &workflowRepo{collection: db.Collection("workflows")}
}

func (r *workflowRepo) Create(ctx context.Context, workflow *model.Workflow) error {
	_, err := r.collection.InsertOne(ctx, workflow)
	return err
}

func (r *workflowRepo) GetByID(ctx context.Context, workflowID string) (*model.Workflow, error) {
	var workflow model.Workflow
	err := r.collection.FindOne(ctx, bson.M{"_id": workflowID}).Decode(&workflow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &workflow, nil
}

func (r *workflowRepo) List(ctx context.Context, status model.WorkflowStatus, limit int) ([]model.Workflow, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workflows := []model.Workflow{}
	if err := cursor.All(ctx, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *workflowRepo) Update(ctx context.Context, workflow *model.Workflow) error {
	workflow.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": workflow.WorkflowID}, workflow)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workflowRepo) Delete(ctx context.Context, workflowID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": workflowID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workflowRepo) DeleteBySignal(ctx context.Context, signalID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"signal_id": signalID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
