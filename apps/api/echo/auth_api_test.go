package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/activitypoints/core/user"
	emailsvc "github.com/trezcool/activitypoints/services/email"
)

func TestAuthAPI_sendOTP(t *testing.T) {
	app := setupServer(t)
	app.createStudent(t, "Jo Blo", "21CS001", "jo@school.test", "")

	t.Run("missing register number", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/send-otp", "", jsonBody(t, SendOTPRequest{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		decodeBody(t, rec, &fldErrs)
		assert.Contains(t, fldErrs, "registerNumber")
	})

	t.Run("unknown register number", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/send-otp", "", jsonBody(t, SendOTPRequest{RegisterNumber: "99XX999"}))
		assertMessage(t, rec, http.StatusNotFound, "user not found")
	})

	t.Run("code issued and mailed", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/send-otp", "", jsonBody(t, SendOTPRequest{RegisterNumber: "21CS001"}))
		assertMessage(t, rec, http.StatusOK, "OTP sent successfully to your college email")

		usr, err := app.usrSvc.GetByRegisterNumber(context.Background(), "21CS001")
		assert.NoError(t, err)
		assert.True(t, usr.HasPendingOTP())

		msg, ok := emailsvc.LastSentMessage()
		assert.True(t, ok)
		assert.Equal(t, "jo@school.test", msg.To[0].Address)
		assert.Contains(t, msg.Body, usr.OTP)
	})
}

func TestAuthAPI_verifyOTP(t *testing.T) {
	app := setupServer(t)
	app.createStudent(t, "Jo Blo", "21CS001", "jo@school.test", "")

	rec := app.request(http.MethodPost, "/auth/send-otp", "", jsonBody(t, SendOTPRequest{RegisterNumber: "21CS001"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	usr, err := app.usrSvc.GetByRegisterNumber(context.Background(), "21CS001")
	assert.NoError(t, err)
	code := usr.OTP

	t.Run("malformed code", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/verify-otp", "", jsonBody(t, user.VerifyOTP{
			RegisterNumber: "21CS001",
			OTP:            "12ab",
			Password:       "Secret123",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		decodeBody(t, rec, &fldErrs)
		assert.Contains(t, fldErrs, "otp")
	})

	t.Run("wrong code", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		rec := app.request(http.MethodPost, "/auth/verify-otp", "", jsonBody(t, user.VerifyOTP{
			RegisterNumber: "21CS001",
			OTP:            wrong,
			Password:       "Secret123",
		}))
		assertMessage(t, rec, http.StatusBadRequest, "invalid or expired OTP")
	})

	t.Run("correct code sets credentials", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/verify-otp", "", jsonBody(t, user.VerifyOTP{
			RegisterNumber: "21CS001",
			OTP:            code,
			Password:       "Secret123",
			Batch:          "2023-2026",
			Branch:         "CE",
		}))
		assertMessage(t, rec, http.StatusOK, "Password and profile set successfully. You can now login.")

		usr, err := app.usrSvc.GetByRegisterNumber(context.Background(), "21CS001")
		assert.NoError(t, err)
		assert.True(t, usr.HasUsablePassword())
		assert.False(t, usr.HasPendingOTP())
		assert.Equal(t, "2023-2026", usr.Batch)
	})
}

func TestAuthAPI_login(t *testing.T) {
	app := setupServer(t)
	app.createStudent(t, "Jo Blo", "21CS001", "jo@school.test", "Secret123")

	t.Run("unknown register number", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/login", "", jsonBody(t, LoginRequest{RegisterNumber: "99XX999", Password: "Secret123"}))
		assertMessage(t, rec, http.StatusUnauthorized, "invalid credentials")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/login", "", jsonBody(t, LoginRequest{RegisterNumber: "21CS001", Password: "nope"}))
		assertMessage(t, rec, http.StatusUnauthorized, "invalid credentials")
	})

	t.Run("valid credentials", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/auth/login", "", jsonBody(t, LoginRequest{RegisterNumber: "21CS001", Password: "Secret123"}))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body LoginResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "Login successful", body.Message)
		assert.Equal(t, "21CS001", body.User.RegisterNumber)
		assert.Equal(t, user.RoleStudent, body.User.Role)

		// the token carries id, register number and role
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(body.Token, claims, func(token *jwt.Token) (interface{}, error) {
			return app.conf.SecretKey, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, body.User.ID, claims.Subject)
		assert.Equal(t, "21CS001", claims.RegisterNumber)
		assert.Equal(t, user.RoleStudent, claims.Role)
	})
}

func TestAuthAPI_me(t *testing.T) {
	app := setupServer(t)
	usr := app.createStudent(t, "Jo Blo", "21CS001", "jo@school.test", "Secret123")

	t.Run("no token", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/auth/me", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := app.request(http.MethodGet, "/auth/me", app.tokenFor(t, usr), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var body UserResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, usr.ID, body.User.ID)
		assert.Equal(t, "21CS001", body.User.RegisterNumber)
	})
}

// TestAuthAPI_onboarding walks the whole first-login journey: a tutor-created
// record requests a code, verifies it with a chosen password and then logs in.
func TestAuthAPI_onboarding(t *testing.T) {
	app := setupServer(t)
	app.createStudent(t, "Jo Blo", "21CS001", "jo@school.test", "")

	// no credentials yet
	rec := app.request(http.MethodPost, "/auth/login", "", jsonBody(t, LoginRequest{RegisterNumber: "21CS001", Password: "Secret123"}))
	assertMessage(t, rec, http.StatusUnauthorized, "invalid credentials")

	// request a code
	rec = app.request(http.MethodPost, "/auth/send-otp", "", jsonBody(t, SendOTPRequest{RegisterNumber: "21CS001"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	usr, err := app.usrSvc.GetByRegisterNumber(context.Background(), "21CS001")
	assert.NoError(t, err)

	// verify it and set a password
	rec = app.request(http.MethodPost, "/auth/verify-otp", "", jsonBody(t, user.VerifyOTP{
		RegisterNumber: "21CS001",
		OTP:            usr.OTP,
		Password:       "Secret123",
		Batch:          "2023-2026",
		Branch:         "CE",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)

	// login now works
	rec = app.request(http.MethodPost, "/auth/login", "", jsonBody(t, LoginRequest{RegisterNumber: "21CS001", Password: "Secret123"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body LoginResponse
	decodeBody(t, rec, &body)

	// and the token opens /auth/me
	rec = app.request(http.MethodGet, "/auth/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var me UserResponse
	decodeBody(t, rec, &me)
	assert.Equal(t, "21CS001", me.User.RegisterNumber)
	assert.Equal(t, "2023-2026", me.User.Batch)
}
