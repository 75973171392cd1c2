package dummydb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/activitypoints/core/user"
)

type userRepository struct {
	students *userTable
	tutors   *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{students: db.students, tutors: db.tutors}
}

func (repo *userRepository) variant(role string) *userTable {
	if role == user.RoleTutor {
		return repo.tutors
	}
	return repo.students
}

func findByRegNum(tbl *userTable, regNum, role string) (user.User, bool) {
	tbl.RLock()
	defer tbl.RUnlock()

	for _, usr := range tbl.table {
		if usr.RegisterNumber == regNum {
			u := *usr
			u.Role = role
			return u, true
		}
	}
	return user.User{}, false
}

func (repo *userRepository) GetUserByRegisterNumber(ctx context.Context, regNum string) (user.User, error) {
	if usr, ok := findByRegNum(repo.students, regNum, user.RoleStudent); ok {
		return usr, nil
	}
	if usr, ok := findByRegNum(repo.tutors, regNum, user.RoleTutor); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func getByID(tbl *userTable, id, role string) (user.User, error) {
	tbl.RLock()
	defer tbl.RUnlock()

	if usr, ok := tbl.table[id]; ok {
		u := *usr
		u.Role = role
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetStudentByID(ctx context.Context, id string) (user.User, error) {
	return getByID(repo.students, id, user.RoleStudent)
}

func (repo *userRepository) GetTutorByID(ctx context.Context, id string) (user.User, error) {
	return getByID(repo.tutors, id, user.RoleTutor)
}

func (repo *userRepository) regNumExists(regNum, excludedID string) bool {
	for _, tbl := range []*userTable{repo.students, repo.tutors} {
		tbl.RLock()
		for _, usr := range tbl.table {
			if usr.RegisterNumber == regNum && usr.ID != excludedID {
				tbl.RUnlock()
				return true
			}
		}
		tbl.RUnlock()
	}
	return false
}

func (repo *userRepository) create(tbl *userTable, usr user.User, role string) (user.User, error) {
	if repo.regNumExists(usr.RegisterNumber, "") {
		return user.User{}, user.ErrRegisterNumberExists
	}

	tbl.Lock()
	defer tbl.Unlock()

	usr.ID = primitive.NewObjectID().Hex()
	usr.Role = role
	tbl.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateStudent(ctx context.Context, usr user.User) (user.User, error) {
	return repo.create(repo.students, usr, user.RoleStudent)
}

func (repo *userRepository) CreateTutor(ctx context.Context, usr user.User) (user.User, error) {
	return repo.create(repo.tutors, usr, user.RoleTutor)
}

func (repo *userRepository) FilterStudents(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	users := make([]user.User, 0, len(repo.students.table))
	for _, usr := range repo.students.table {
		if filter.Batch != "" && usr.Batch != filter.Batch {
			continue
		}
		if filter.Branch != "" && usr.Branch != filter.Branch {
			continue
		}
		u := *usr
		u.Role = user.RoleStudent
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].RegisterNumber < users[j].RegisterNumber })
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if repo.regNumExists(usr.RegisterNumber, usr.ID) {
		return user.User{}, user.ErrRegisterNumberExists
	}

	tbl := repo.variant(usr.Role)
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	tbl.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.students.Lock()
	defer repo.students.Unlock()

	if _, ok := repo.students.table[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.students.table, id)
	return nil
}
