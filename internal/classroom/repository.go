package classroom

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the store contract for classes, rosters and test
// assignments.
type Repository interface {
	CreateClass(ctx context.Context, class *Class) error
	FindClass(ctx context.Context, orgID, classID primitive.ObjectID) (*Class, error)
	ListClasses(ctx context.Context, orgID primitive.ObjectID) ([]*Class, error)
	AddStudents(ctx context.Context, classID primitive.ObjectID, studentIDs []primitive.ObjectID) (int, error)
	RemoveStudent(ctx context.Context, classID, studentID primitive.ObjectID) (bool, error)
	StudentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]EnrolledStudent, error)
	TestIsPublished(ctx context.Context, orgID, testID primitive.ObjectID) (bool, error)
	CreateAssignment(ctx context.Context, assignment *TestAssignment) error
}

type MongoRepository struct {
	classes     *mongo.Collection
	assignments *mongo.Collection
	students    *mongo.Collection
	users       *mongo.Collection
	tests       *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		classes:     db.Collection("classes"),
		assignments: db.Collection("test_assignments"),
		students:    db.Collection("students"),
		users:       db.Collection("users"),
		tests:       db.Collection("tests"),
	}
}

func (r *MongoRepository) CreateClass(ctx context.Context, class *Class) error {
	if class.ID.IsZero() {
		class.ID = primitive.NewObjectID()
	}
	_, err := r.classes.InsertOne(ctx, class)
	return err
}

func (r *MongoRepository) FindClass(ctx context.Context, orgID, classID primitive.ObjectID) (*Class, error) {
	var class Class
	err := r.classes.FindOne(ctx, bson.M{"_id": classID, "organization_id": orgID}).Decode(&class)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &class, nil
}

func (r *MongoRepository) ListClasses(ctx context.Context, orgID primitive.ObjectID) ([]*Class, error) {
	cursor, err := r.classes.Find(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return nil, err
	}
	var classes []*Class
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// AddStudents enrolls the given students, ignoring ones already on the
// roster, and reports how many were actually added.
func (r *MongoRepository) AddStudents(ctx context.Context, classID primitive.ObjectID, studentIDs []primitive.ObjectID) (int, error) {
	var before Class
	if err := r.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&before); err != nil {
		return 0, err
	}
	enrolled := make(map[primitive.ObjectID]struct{}, len(before.StudentIDs))
	for _, id := range before.StudentIDs {
		enrolled[id] = struct{}{}
	}
	added := 0
	for _, id := range studentIDs {
		if _, ok := enrolled[id]; !ok {
			added++
		}
	}

	update := bson.M{
		"$addToSet": bson.M{"student_ids": bson.M{"$each": studentIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := r.classes.UpdateByID(ctx, classID, update); err != nil {
		return 0, err
	}
	return added, nil
}

func (r *MongoRepository) RemoveStudent(ctx context.Context, classID, studentID primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"student_ids": studentID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.classes.UpdateByID(ctx, classID, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// StudentsByIDs resolves roster entries by joining students with their user
// records.
func (r *MongoRepository) StudentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]EnrolledStudent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.students.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var students []struct {
		ID        primitive.ObjectID `bson:"_id"`
		UserID    primitive.ObjectID `bson:"user_id"`
		StudentID string             `bson:"student_id"`
	}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(students))
	for _, s := range students {
		userIDs = append(userIDs, s.UserID)
	}
	userCursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}},
		options.Find().SetProjection(bson.M{"first_name": 1, "last_name": 1, "email": 1}))
	if err != nil {
		return nil, err
	}
	var users []struct {
		ID        primitive.ObjectID `bson:"_id"`
		FirstName string             `bson:"first_name"`
		LastName  string             `bson:"last_name"`
		Email     string             `bson:"email"`
	}
	if err := userCursor.All(ctx, &users); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]int, len(users))
	for i, u := range users {
		byID[u.ID] = i
	}

	result := make([]EnrolledStudent, 0, len(students))
	for _, s := range students {
		entry := EnrolledStudent{ID: s.ID.Hex(), StudentID: s.StudentID}
		if i, ok := byID[s.UserID]; ok {
			entry.FirstName = users[i].FirstName
			entry.LastName = users[i].LastName
			entry.Email = users[i].Email
		}
		result = append(result, entry)
	}
	return result, nil
}

func (r *MongoRepository) TestIsPublished(ctx context.Context, orgID, testID primitive.ObjectID) (bool, error) {
	err := r.tests.FindOne(ctx, bson.M{
		"_id":             testID,
		"organization_id": orgID,
		"is_published":    true,
	}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MongoRepository) CreateAssignment(ctx context.Context, assignment *TestAssignment) error {
	if assignment.ID.IsZero() {
		assignment.ID = primitive.NewObjectID()
	}
	_, err := r.assignments.InsertOne(ctx, assignment)
	return err
}
