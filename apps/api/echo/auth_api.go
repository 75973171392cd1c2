package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/activitypoints/core"
	"github.com/trezcool/activitypoints/core/user"
)

type authApi struct {
	conf     *core.Config
	svc      user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	// TODO: rate limit `/send-otp`
	g.POST("/send-otp", api.sendOTP)
	g.POST("/verify-otp", api.verifyOTP)
	g.POST("/login", api.login)

	// authed endpoints
	g.GET("/me", api.me, jwt)
}

// Handlers

func (api *authApi) sendOTP(ctx echo.Context) error {
	var data SendOTPRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendOTPRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestOTP(ctx.Request().Context(), data.RegisterNumber); err != nil {
		return errors.Wrap(err, "requesting OTP")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP sent successfully to your college email"})
}

func (api *authApi) verifyOTP(ctx echo.Context) error {
	var data user.VerifyOTP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyOTP")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.VerifyOTP(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "verifying OTP")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password and profile set successfully. You can now login."})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.RegisterNumber, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    usr.Public(),
	})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: usr.Public()})
}

type (
	SendOTPRequest struct {
		RegisterNumber string `json:"registerNumber" validate:"required,regnum"`
	}

	LoginRequest struct {
		RegisterNumber string `json:"registerNumber" validate:"required"`
		Password       string `json:"password" validate:"required"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	LoginResponse struct {
		Message string          `json:"message"`
		Token   string          `json:"token"`
		User    user.PublicUser `json:"user"`
	}

	UserResponse struct {
		User user.PublicUser `json:"user"`
	}
)

func (sr *SendOTPRequest) Validate(validate *validator.Validate) error {
	sr.RegisterNumber = core.CleanString(sr.RegisterNumber)
	return validate.Struct(sr)
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.RegisterNumber = core.CleanString(lr.RegisterNumber)
	return validate.Struct(lr)
}
