package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/activitypoints/core"
	"github.com/trezcool/activitypoints/core/category"
	"github.com/trezcool/activitypoints/core/user"
	emailsvc "github.com/trezcool/activitypoints/services/email"
	dummydb "github.com/trezcool/activitypoints/storage/dummy"
)

// testLogger drops everything; API tests assert on responses, not logs.
type testLogger struct{}

var _ core.Logger = (*testLogger)(nil)

func (l *testLogger) Enable(enabled bool)                   {}
func (l *testLogger) Debug(msg string, args ...interface{}) {}
func (l *testLogger) Info(msg string, args ...interface{})  {}
func (l *testLogger) Warn(msg string, args ...interface{})  {}
func (l *testLogger) Error(msg string, args ...interface{}) {}
func (l *testLogger) Fatal(msg string, args ...interface{}) {}

type testApp struct {
	server  Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  user.Service
	catSvc  category.Service
}

func setupServer(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	catSvc := category.NewService(dummydb.NewCategoryRepository(db))
	emailsvc.ClearSentMessages()

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         &testLogger{},
		UserSvc:        usrSvc,
		CategorySvc:    catSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{
		server:  server,
		conf:    conf,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
		catSvc:  catSvc,
	}
}

func newTestTranslator() ut.Translator {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (app *testApp) createStudent(t *testing.T, name, regNum, email, pwd string) user.User {
	t.Helper()
	return app.createUser(t, user.RoleStudent, name, regNum, email, pwd)
}

func (app *testApp) createTutor(t *testing.T, name, regNum, email, pwd string) user.User {
	t.Helper()
	return app.createUser(t, user.RoleTutor, name, regNum, email, pwd)
}

func (app *testApp) createUser(t *testing.T, role, name, regNum, email, pwd string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:           name,
		RegisterNumber: regNum,
		Email:          email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}

	var err error
	if role == user.RoleTutor {
		usr, err = app.usrRepo.CreateTutor(context.Background(), usr)
	} else {
		usr, err = app.usrRepo.CreateStudent(context.Background(), usr)
	}
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// tokenFor signs a JWT for the given record, bypassing the login endpoint.
func (app *testApp) tokenFor(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	buf, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	return bytes.NewReader(buf)
}

func (app *testApp) request(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}

func assertMessage(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantMsg string) {
	t.Helper()

	if rec.Code != wantCode {
		t.Fatalf("status = %d; want %d; body %q", rec.Code, wantCode, rec.Body.String())
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if body.Message != wantMsg {
		t.Errorf("message = %q; want %q", body.Message, wantMsg)
	}
}
