package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/activitypoints/core"
	"github.com/trezcool/activitypoints/core/user"
	emailsvc "github.com/trezcool/activitypoints/services/email"
	dummydb "github.com/trezcool/activitypoints/storage/dummy"
)

func setup(t *testing.T) (user.Service, user.Repository, *core.Config) {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewUserRepository(db)
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)
	emailsvc.ClearSentMessages()
	return svc, repo, conf
}

func createStudent(t *testing.T, repo user.Repository, name, regNum, email string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr, err := repo.CreateStudent(context.Background(), user.User{
		Name:           name,
		RegisterNumber: regNum,
		Email:          email,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return usr
}

func createTutor(t *testing.T, repo user.Repository, name, regNum, email string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr, err := repo.CreateTutor(context.Background(), user.User{
		Name:           name,
		RegisterNumber: regNum,
		Email:          email,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("createTutor() failed: %v", err)
	}
	return usr
}

func TestService_RequestOTP(t *testing.T) {
	svc, repo, conf := setup(t)
	ctx := context.Background()

	createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")

	t.Run("unknown register number", func(t *testing.T) {
		err := svc.RequestOTP(ctx, "99XX999")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("OTP persisted and mailed", func(t *testing.T) {
		err := svc.RequestOTP(ctx, "21CS001")
		assert.NoError(t, err)

		usr, err := svc.GetByRegisterNumber(ctx, "21CS001")
		assert.NoError(t, err)
		assert.True(t, usr.HasPendingOTP())
		assert.Len(t, usr.OTP, 6)
		assert.WithinDuration(t, time.Now().UTC().Add(conf.OTPExpirationDelta), usr.OTPExpiry, 5*time.Second)

		msg, ok := emailsvc.LastSentMessage()
		assert.True(t, ok)
		assert.Equal(t, "jo@school.test", msg.To[0].Address)
		assert.Contains(t, msg.Body, usr.OTP)
	})

	t.Run("tutor fallback lookup", func(t *testing.T) {
		createTutor(t, repo, "Mr T", "TUT001", "t@school.test")
		err := svc.RequestOTP(ctx, "TUT001")
		assert.NoError(t, err)

		usr, err := svc.GetByRegisterNumber(ctx, "TUT001")
		assert.NoError(t, err)
		assert.True(t, usr.IsTutor())
		assert.True(t, usr.HasPendingOTP())
	})
}

func TestService_VerifyOTP(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")
	assert.NoError(t, svc.RequestOTP(ctx, "21CS001"))
	usr, _ := svc.GetByRegisterNumber(ctx, "21CS001")
	code := usr.OTP

	t.Run("unknown register number", func(t *testing.T) {
		_, err := svc.VerifyOTP(ctx, user.VerifyOTP{RegisterNumber: "99XX999", OTP: code, Password: "Secret123"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("wrong code leaves password unset", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		_, err := svc.VerifyOTP(ctx, user.VerifyOTP{RegisterNumber: "21CS001", OTP: wrong, Password: "Secret123"})
		assert.Equal(t, user.ErrOTPInvalidOrExpired, err)

		usr, _ = svc.GetByRegisterNumber(ctx, "21CS001")
		assert.False(t, usr.HasUsablePassword())
		assert.True(t, usr.HasPendingOTP()) // failed attempt does not consume the code
	})

	t.Run("correct code sets password and clears OTP", func(t *testing.T) {
		usr, err := svc.VerifyOTP(ctx, user.VerifyOTP{
			RegisterNumber: "21CS001",
			OTP:            code,
			Password:       "Secret123",
			Batch:          "2023-2026",
			Branch:         "CE",
		})
		assert.NoError(t, err)
		assert.True(t, usr.HasUsablePassword())
		assert.False(t, usr.HasPendingOTP())
		assert.Equal(t, "2023-2026", usr.Batch)
		assert.Equal(t, "CE", usr.Branch)

		// the same code cannot be replayed
		_, err = svc.VerifyOTP(ctx, user.VerifyOTP{RegisterNumber: "21CS001", OTP: code, Password: "Other123"})
		assert.Equal(t, user.ErrOTPInvalidOrExpired, err)
	})
}

func TestService_VerifyOTP_expired(t *testing.T) {
	svc, repo, conf := setup(t)
	ctx := context.Background()

	// an already-expired window makes any issued code stale on arrival
	conf.OTPExpirationDelta = -time.Minute

	createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")
	assert.NoError(t, svc.RequestOTP(ctx, "21CS001"))
	usr, _ := svc.GetByRegisterNumber(ctx, "21CS001")

	_, err := svc.VerifyOTP(ctx, user.VerifyOTP{RegisterNumber: "21CS001", OTP: usr.OTP, Password: "Secret123"})
	assert.Equal(t, user.ErrOTPInvalidOrExpired, err)

	usr, _ = svc.GetByRegisterNumber(ctx, "21CS001")
	assert.False(t, usr.HasUsablePassword())
}

func TestService_Authenticate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")

	t.Run("no password set", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "21CS001", "anything")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	assert.NoError(t, svc.RequestOTP(ctx, "21CS001"))
	usr, _ := svc.GetByRegisterNumber(ctx, "21CS001")
	_, err := svc.VerifyOTP(ctx, user.VerifyOTP{RegisterNumber: "21CS001", OTP: usr.OTP, Password: "Secret123"})
	assert.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "21CS001", "nope")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	t.Run("unknown register number", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "99XX999", "Secret123")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	t.Run("valid credentials", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "21CS001", "Secret123")
		assert.NoError(t, err)
		assert.Equal(t, "21CS001", usr.RegisterNumber)
		assert.True(t, usr.IsStudent())
	})
}

func TestService_CreateStudent(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.CreateStudent(ctx, user.NewStudent{Name: "Jo Blo", RegisterNumber: "21CS001", Email: "jo@school.test"})
	assert.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.False(t, usr.HasUsablePassword())

	_, err = svc.CreateStudent(ctx, user.NewStudent{Name: "Dup", RegisterNumber: "21CS001", Email: "dup@school.test"})
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %T", err) {
		assert.Equal(t, "registerNumber", vErr.Fields[0].Field)
	}
}

func TestService_FilterStudents(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	ce := createStudent(t, repo, "A", "21CS001", "a@school.test")
	ce.Batch, ce.Branch = "2023-2026", "CE"
	_, err := repo.UpdateUser(ctx, ce)
	assert.NoError(t, err)

	me := createStudent(t, repo, "B", "22ME001", "b@school.test")
	me.Batch, me.Branch = "2022-2025", "ME"
	_, err = repo.UpdateUser(ctx, me)
	assert.NoError(t, err)

	all, err := svc.FilterStudents(ctx, user.QueryFilter{})
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	batch, err := svc.FilterStudents(ctx, user.QueryFilter{Batch: "2023-2026"})
	assert.NoError(t, err)
	if assert.Len(t, batch, 1) {
		assert.Equal(t, "21CS001", batch[0].RegisterNumber)
	}

	none, err := svc.FilterStudents(ctx, user.QueryFilter{Batch: "2023-2026", Branch: "ME"})
	assert.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestService_UpdateStudent(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	usr := createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")

	t.Run("not found", func(t *testing.T) {
		_, err := svc.UpdateStudent(ctx, "missing", user.UpdateStudent{Name: "X"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("partial patch", func(t *testing.T) {
		points := 42
		got, err := svc.UpdateStudent(ctx, usr.ID, user.UpdateStudent{Batch: "2023-2026", TotalPoints: &points})
		assert.NoError(t, err)
		assert.Equal(t, "Jo Blo", got.Name) // untouched
		assert.Equal(t, "2023-2026", got.Batch)
		assert.Equal(t, 42, got.TotalPoints)
	})

	t.Run("register number conflict", func(t *testing.T) {
		createStudent(t, repo, "Other", "21CS002", "o@school.test")
		_, err := svc.UpdateStudent(ctx, usr.ID, user.UpdateStudent{RegisterNumber: "21CS002"})
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "expected *core.ValidationError, got %T", err)
	})
}

func TestService_ResetStudentPassword(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	usr := createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")

	_, err := svc.ResetStudentPassword(ctx, "missing")
	assert.Equal(t, user.ErrNotFound, err)

	got, err := svc.ResetStudentPassword(ctx, usr.ID)
	assert.NoError(t, err)
	assert.True(t, got.HasUsablePassword())

	msg, ok := emailsvc.LastSentMessage()
	assert.True(t, ok)
	assert.Equal(t, "jo@school.test", msg.To[0].Address)
	assert.Contains(t, msg.Body, "temporary password")
}

func TestService_DeleteStudent(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	usr := createStudent(t, repo, "Jo Blo", "21CS001", "jo@school.test")

	assert.NoError(t, svc.DeleteStudent(ctx, usr.ID))
	assert.Equal(t, user.ErrNotFound, svc.DeleteStudent(ctx, usr.ID))

	_, err := svc.GetByRegisterNumber(ctx, "21CS001")
	assert.Equal(t, user.ErrNotFound, err)
}
