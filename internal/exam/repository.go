package exam

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	CreateTest(ctx context.Context, test *Test) error
	FindTest(ctx context.Context, orgID, testID primitive.ObjectID) (*Test, error)
	ListQuestions(ctx context.Context, testID primitive.ObjectID) ([]*Question, error)
	CreateQuestion(ctx context.Context, question *Question) error
	PublishTest(ctx context.Context, orgID, testID primitive.ObjectID) (bool, error)
}

type MongoRepository struct {
	tests     *mongo.Collection
	questions *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		tests:     db.Collection("tests"),
		questions: db.Collection("questions"),
	}
}

func (r *MongoRepository) CreateTest(ctx context.Context, test *Test) error {
	if test.ID.IsZero() {
		test.ID = primitive.NewObjectID()
	}
	_, err := r.tests.InsertOne(ctx, test)
	return err
}

func (r *MongoRepository) FindTest(ctx context.Context, orgID, testID primitive.ObjectID) (*Test, error) {
	var test Test
	err := r.tests.FindOne(ctx, bson.M{"_id": testID, "organization_id": orgID}).Decode(&test)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &test, nil
}

func (r *MongoRepository) ListQuestions(ctx context.Context, testID primitive.ObjectID) ([]*Question, error) {
	cursor, err := r.questions.Find(ctx, bson.M{"test_id": testID},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var questions []*Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *MongoRepository) CreateQuestion(ctx context.Context, question *Question) error {
	if question.ID.IsZero() {
		question.ID = primitive.NewObjectID()
	}
	_, err := r.questions.InsertOne(ctx, question)
	return err
}

// PublishTest flips is_published and reports whether the test existed.
func (r *MongoRepository) PublishTest(ctx context.Context, orgID, testID primitive.ObjectID) (bool, error) {
	res, err := r.tests.UpdateOne(ctx,
		bson.M{"_id": testID, "organization_id": orgID},
		bson.M{"$set": bson.M{"is_published": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
