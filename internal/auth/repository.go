package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned when a create hits the unique index on
// users.email.
var ErrDuplicateEmail = errors.New("email already exists")

// Repository is the credential store contract. Lookups return (nil, nil)
// when the record is absent; creates that pair a user with a profile are
// all-or-nothing.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	ProfileForUser(ctx context.Context, user *User) (Profile, error)
	FindStaffByUserID(ctx context.Context, userID string) (*Staff, error)
	CreateOrgAdmin(ctx context.Context, user *User, org *Organization) error
	CreateStaff(ctx context.Context, user *User, staff *Staff) error
	CreateStudent(ctx context.Context, user *User, student *Student) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	StoreOTP(ctx context.Context, userID, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, userID string, markVerified bool) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// MongoRepository implements Repository over the users, organizations,
// staff and students collections.
type MongoRepository struct {
	client        *mongo.Client
	users         *mongo.Collection
	organizations *mongo.Collection
	staff         *mongo.Collection
	students      *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		client:        db.Client(),
		users:         db.Collection("users"),
		organizations: db.Collection("organizations"),
		staff:         db.Collection("staff"),
		students:      db.Collection("students"),
	}
}

func (r *MongoRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoRepository) FindUserByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var user User
	err = r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ProfileForUser loads the single profile relation matching the user's role.
func (r *MongoRepository) ProfileForUser(ctx context.Context, user *User) (Profile, error) {
	switch user.Role {
	case RoleOrgAdmin:
		var org Organization
		err := r.organizations.FindOne(ctx, bson.M{"admin_user_id": user.ID}).Decode(&org)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return Profile{}, nil
			}
			return Profile{}, err
		}
		return Profile{Organization: &org}, nil
	case RoleStaff:
		var staff Staff
		err := r.staff.FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&staff)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return Profile{}, nil
			}
			return Profile{}, err
		}
		return Profile{Staff: &staff}, nil
	case RoleStudent:
		var student Student
		err := r.students.FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&student)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return Profile{}, nil
			}
			return Profile{}, err
		}
		return Profile{Student: &student}, nil
	}
	return Profile{}, nil
}

func (r *MongoRepository) FindStaffByUserID(ctx context.Context, userID string) (*Staff, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	var staff Staff
	err = r.staff.FindOne(ctx, bson.M{"user_id": oid}).Decode(&staff)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// inTransaction runs fn inside a mongo session so that a user and its
// profile are created atomically. Partial creation must never be observable.
func (r *MongoRepository) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoRepository) insertUser(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *MongoRepository) CreateOrgAdmin(ctx context.Context, user *User, org *Organization) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.insertUser(sc, user); err != nil {
			return err
		}
		if org.ID.IsZero() {
			org.ID = primitive.NewObjectID()
		}
		org.AdminUserID = user.ID
		_, err := r.organizations.InsertOne(sc, org)
		return err
	})
}

func (r *MongoRepository) CreateStaff(ctx context.Context, user *User, staff *Staff) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.insertUser(sc, user); err != nil {
			return err
		}
		if staff.ID.IsZero() {
			staff.ID = primitive.NewObjectID()
		}
		staff.UserID = user.ID
		_, err := r.staff.InsertOne(sc, staff)
		return err
	})
}

func (r *MongoRepository) CreateStudent(ctx context.Context, user *User, student *Student) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.insertUser(sc, user); err != nil {
			return err
		}
		if student.ID.IsZero() {
			student.ID = primitive.NewObjectID()
		}
		student.UserID = user.ID
		_, err := r.students.InsertOne(sc, student)
		return err
	})
}

func (r *MongoRepository) updateUser(ctx context.Context, userID string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	update["$set"].(bson.M)["updated_at"] = time.Now().UTC()
	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.updateUser(ctx, userID, bson.M{"$set": bson.M{"last_login": at}})
}

// StoreOTP writes the code and its expiry and flips verification back to
// pending. A later StoreOTP for the same user overwrites the previous code
// (last writer wins).
func (r *MongoRepository) StoreOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	return r.updateUser(ctx, userID, bson.M{"$set": bson.M{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
		"is_verified":    false,
	}})
}

func (r *MongoRepository) ClearOTP(ctx context.Context, userID string, markVerified bool) error {
	set := bson.M{"otp_code": "", "otp_expires_at": nil}
	if markVerified {
		set["is_verified"] = true
	}
	return r.updateUser(ctx, userID, bson.M{"$set": set})
}

// UpdatePassword overwrites the hash and clears any outstanding OTP without
// touching the verification flag.
func (r *MongoRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateUser(ctx, userID, bson.M{"$set": bson.M{
		"password_hash":  passwordHash,
		"otp_code":       "",
		"otp_expires_at": nil,
	}})
}
