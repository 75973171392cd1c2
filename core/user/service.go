package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/activitypoints/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrRegisterNumberExists = errors.New("a user with this register number already exists")
	ErrOTPInvalidOrExpired  = errors.New("invalid or expired OTP")
	ErrInvalidCredentials   = errors.New("invalid credentials")

	nowFunc = time.Now // mockable
)

type (
	// Repository is the directory's persistence contract. Lookups by register
	// number span both variants (Student checked first) and return the record
	// tagged with its Role.
	Repository interface {
		GetUserByRegisterNumber(ctx context.Context, regNum string) (User, error)
		GetStudentByID(ctx context.Context, id string) (User, error)
		GetTutorByID(ctx context.Context, id string) (User, error)
		CreateStudent(ctx context.Context, usr User) (User, error)
		CreateTutor(ctx context.Context, usr User) (User, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]User, error)
		// UpdateUser persists the whole record in the collection its Role tags.
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service interface {
		RequestOTP(ctx context.Context, regNum string) error
		VerifyOTP(ctx context.Context, data VerifyOTP) (User, error)
		Authenticate(ctx context.Context, regNum, pwd string) (User, error)
		GetByID(ctx context.Context, id, role string) (User, error)
		GetByRegisterNumber(ctx context.Context, regNum string) (User, error)
		CreateStudent(ctx context.Context, data NewStudent) (User, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateStudent(ctx context.Context, id string, data UpdateStudent) (User, error)
		DeleteStudent(ctx context.Context, id string) error
		ResetStudentPassword(ctx context.Context, id string) (User, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// RequestOTP generates a 6-digit code valid for the configured delta,
// persists it on the matched record and emails it. The code stays persisted
// even when the dispatch fails (accepted inconsistency; the user just
// requests a new one).
func (svc *service) RequestOTP(ctx context.Context, regNum string) error {
	usr, err := svc.repo.GetUserByRegisterNumber(ctx, core.CleanString(regNum))
	if err != nil {
		return err
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	usr.OTP = code
	usr.OTPExpiry = nowFunc().UTC().Add(svc.conf.OTPExpirationDelta)
	usr.UpdatedAt = nowFunc().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return err
	}

	return svc.sendOTPMail(usr)
}

// VerifyOTP checks the submitted code against the stored value and expiry;
// on success it sets the password hash, clears both OTP fields and applies
// the optional profile fields. No locking: two concurrent verifications with
// the same valid code race, last write wins.
func (svc *service) VerifyOTP(ctx context.Context, data VerifyOTP) (User, error) {
	usr, err := svc.repo.GetUserByRegisterNumber(ctx, data.RegisterNumber)
	if err != nil {
		return User{}, err
	}

	if !usr.HasPendingOTP() || usr.OTP != data.OTP || !nowFunc().UTC().Before(usr.OTPExpiry) {
		return User{}, ErrOTPInvalidOrExpired
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return User{}, err
	}
	usr.clearOTP()
	if data.Batch != "" {
		usr.Batch = data.Batch
	}
	if data.Branch != "" {
		usr.Branch = data.Branch
	}
	usr.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Authenticate looks the register number up across both variants and checks
// the password. All failure modes (unknown number, no password set yet,
// hash mismatch) collapse into ErrInvalidCredentials.
func (svc *service) Authenticate(ctx context.Context, regNum, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByRegisterNumber(ctx, core.CleanString(regNum))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.HasUsablePassword() {
		return User{}, ErrInvalidCredentials
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id, role string) (User, error) {
	if role == RoleTutor {
		return svc.repo.GetTutorByID(ctx, id)
	}
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) GetByRegisterNumber(ctx context.Context, regNum string) (User, error) {
	return svc.repo.GetUserByRegisterNumber(ctx, core.CleanString(regNum))
}

func (svc *service) CreateStudent(ctx context.Context, data NewStudent) (User, error) {
	now := nowFunc().UTC()
	usr := User{
		Role:           RoleStudent,
		Name:           data.Name,
		RegisterNumber: data.RegisterNumber,
		Email:          data.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	usr, err := svc.repo.CreateStudent(ctx, usr)
	if err != nil {
		return User{}, svc.checkUniqueness(err)
	}
	return usr, nil
}

func (svc *service) FilterStudents(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, data UpdateStudent) (User, error) {
	usr, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if data.Name != "" {
		usr.Name = data.Name
	}
	if data.RegisterNumber != "" {
		usr.RegisterNumber = data.RegisterNumber
	}
	if data.Email != "" {
		usr.Email = data.Email
	}
	if data.Batch != "" {
		usr.Batch = data.Batch
	}
	if data.Branch != "" {
		usr.Branch = data.Branch
	}
	if data.TotalPoints != nil {
		usr.TotalPoints = *data.TotalPoints
	}
	usr.UpdatedAt = nowFunc().UTC()

	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, svc.checkUniqueness(err)
	}
	return usr, nil
}

func (svc *service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// ResetStudentPassword stores a hashed random temporary password and mails it
// to the student. The mail is best-effort; the reset itself is the operation.
func (svc *service) ResetStudentPassword(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	tmpPwd := GenerateTempPassword()
	if err = usr.SetPassword(tmpPwd); err != nil {
		return User{}, err
	}
	usr.clearOTP()
	usr.UpdatedAt = nowFunc().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}

	svc.sendTempPasswordMail(usr, tmpPwd)
	return usr, nil
}

func (svc *service) checkUniqueness(err error) error {
	if errors.Is(err, ErrRegisterNumberExists) {
		return core.NewValidationError(err, core.FieldError{Field: "registerNumber", Error: err.Error()})
	}
	return err
}

func (svc *service) sendOTPMail(usr User) error {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Your OTP for %s", svc.conf.AppName),
		Body: fmt.Sprintf(
			"Your OTP is: %s. It is valid for %d minutes.",
			usr.OTP, int(svc.conf.OTPExpirationDelta.Minutes()),
		),
	}
	return svc.mailSvc.SendMessage(msg)
}

func (svc *service) sendTempPasswordMail(usr User, tmpPwd string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Your password was reset",
		Body: fmt.Sprintf(
			"Your tutor reset your password. Your temporary password is: %s\r\n"+
				"Please log in and change it.",
			tmpPwd,
		),
	})
}
