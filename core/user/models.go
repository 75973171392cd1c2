package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/activitypoints/core"
)

// Roles. A user record is either a Student or a Tutor; the role is the
// variant tag set by the directory on lookup.
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
)

// User is a directory record (Student | Tutor variant, tagged by Role),
// keyed by a globally unique register number.
type User struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Role           string    `json:"role" bson:"-"`
	Name           string    `json:"name" bson:"name"`
	RegisterNumber string    `json:"registerNumber" bson:"registerNumber"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   []byte    `json:"-" bson:"password,omitempty"`
	OTP            string    `json:"-" bson:"otp,omitempty"`
	OTPExpiry      time.Time `json:"-" bson:"otpExpiry,omitempty"`

	// Student profile
	Batch       string `json:"batch,omitempty" bson:"batch,omitempty"`
	Branch      string `json:"branch,omitempty" bson:"branch,omitempty"`
	TotalPoints int    `json:"totalPoints" bson:"totalPoints"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasUsablePassword reports whether a password has been set; it is only ever
// set after a successful OTP verification cycle (or a tutor-initiated reset).
func (u *User) HasUsablePassword() bool { return len(u.PasswordHash) > 0 }

// HasPendingOTP reports whether an OTP cycle is in flight; the code and its
// expiry are either both set or both cleared.
func (u *User) HasPendingOTP() bool { return u.OTP != "" && !u.OTPExpiry.IsZero() }

func (u *User) IsTutor() bool   { return u.Role == RoleTutor }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// clearOTP resets the record to the "no pending OTP" state.
func (u *User) clearOTP() {
	u.OTP = ""
	u.OTPExpiry = time.Time{}
}

// PublicUser is the profile view returned to clients; it never carries
// credential or OTP fields.
type PublicUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Batch          string `json:"batch,omitempty"`
	Branch         string `json:"branch,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		RegisterNumber: u.RegisterNumber,
		Email:          u.Email,
		Role:           u.Role,
		Batch:          u.Batch,
		Branch:         u.Branch,
	}
}

// NewStudent contains information needed to register a new Student record.
// Credentials are never set here; they only appear after the OTP cycle.
type NewStudent struct {
	Name           string `json:"name" validate:"required"`
	RegisterNumber string `json:"registerNumber" validate:"required,regnum"`
	Email          string `json:"email" validate:"required,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RegisterNumber = core.CleanString(ns.RegisterNumber)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be modified on an existing Student record.
// Password and OTP fields are deliberately absent: they cannot be patched.
type UpdateStudent struct {
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber" validate:"omitempty,regnum"`
	Email          string `json:"email" validate:"omitempty,email"`
	Batch          string `json:"batch"`
	Branch         string `json:"branch"`
	TotalPoints    *int   `json:"totalPoints"`
}

func (uu *UpdateStudent) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.RegisterNumber = core.CleanString(uu.RegisterNumber)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Batch = core.CleanString(uu.Batch)
	uu.Branch = core.CleanString(uu.Branch)
	return validate.Struct(uu)
}

// VerifyOTP carries the single irreversible transition from "no credential"
// to "has credential".
type VerifyOTP struct {
	RegisterNumber string `json:"registerNumber" validate:"required,regnum"`
	OTP            string `json:"otp" validate:"required,len=6,numeric"`
	Password       string `json:"password" validate:"required"`
	Batch          string `json:"batch"`
	Branch         string `json:"branch"`
}

func (vo *VerifyOTP) Validate(validate *validator.Validate) error {
	vo.RegisterNumber = core.CleanString(vo.RegisterNumber)
	vo.OTP = core.CleanString(vo.OTP)
	vo.Batch = core.CleanString(vo.Batch)
	vo.Branch = core.CleanString(vo.Branch)
	return validate.Struct(vo)
}

// QueryFilter applies AND equality filters on student listings.
type QueryFilter struct {
	Batch  string `query:"batch"`
	Branch string `query:"branch"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Batch == "" && qf.Branch == ""
}

func (qf *QueryFilter) Clean() {
	qf.Batch = core.CleanString(qf.Batch)
	qf.Branch = core.CleanString(qf.Branch)
}
