package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/activitypoints/core/user"
)

type userRepository struct {
	students *mongo.Collection
	tutors   *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{
		students: db.Collection(studentColl),
		tutors:   db.Collection(tutorColl),
	}
}

func (repo *userRepository) collection(role string) *mongo.Collection {
	if role == user.RoleTutor {
		return repo.tutors
	}
	return repo.students
}

// GetUserByRegisterNumber spans both variants: students first, tutors as
// fallback. The returned record is tagged with its Role.
func (repo *userRepository) GetUserByRegisterNumber(ctx context.Context, regNum string) (user.User, error) {
	filter := bson.M{"registerNumber": regNum}

	var usr user.User
	err := repo.students.FindOne(ctx, filter).Decode(&usr)
	if err == nil {
		usr.Role = user.RoleStudent
		return usr, nil
	}
	if err != mongo.ErrNoDocuments {
		return user.User{}, errors.Wrap(err, "finding student by register number")
	}

	if err = repo.tutors.FindOne(ctx, filter).Decode(&usr); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding tutor by register number")
	}
	usr.Role = user.RoleTutor
	return usr, nil
}

func (repo *userRepository) getByID(ctx context.Context, coll *mongo.Collection, id, role string) (user.User, error) {
	var usr user.User
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&usr); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrapf(err, "finding %s by ID", role)
	}
	usr.Role = role
	return usr, nil
}

func (repo *userRepository) GetStudentByID(ctx context.Context, id string) (user.User, error) {
	return repo.getByID(ctx, repo.students, id, user.RoleStudent)
}

func (repo *userRepository) GetTutorByID(ctx context.Context, id string) (user.User, error) {
	return repo.getByID(ctx, repo.tutors, id, user.RoleTutor)
}

func (repo *userRepository) create(ctx context.Context, coll *mongo.Collection, usr user.User, role string) (user.User, error) {
	usr.ID = primitive.NewObjectID().Hex()
	usr.Role = role
	if _, err := coll.InsertOne(ctx, usr); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrRegisterNumberExists
		}
		return user.User{}, errors.Wrapf(err, "inserting %s", role)
	}
	return usr, nil
}

func (repo *userRepository) CreateStudent(ctx context.Context, usr user.User) (user.User, error) {
	return repo.create(ctx, repo.students, usr, user.RoleStudent)
}

func (repo *userRepository) CreateTutor(ctx context.Context, usr user.User) (user.User, error) {
	return repo.create(ctx, repo.tutors, usr, user.RoleTutor)
}

func (repo *userRepository) FilterStudents(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.Batch != "" {
		query["batch"] = filter.Batch
	}
	if filter.Branch != "" {
		query["branch"] = filter.Branch
	}

	cursor, err := repo.students.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "registerNumber", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var users []user.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	for i := range users {
		users[i].Role = user.RoleStudent
	}
	return users, nil
}

// UpdateUser replaces the whole record in the collection its Role tags;
// cleared OTP fields are dropped from the document (omitempty).
func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.collection(usr.Role).ReplaceOne(ctx, bson.M{"_id": usr.ID}, usr)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrRegisterNumberExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.students.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
