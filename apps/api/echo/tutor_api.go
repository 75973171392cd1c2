package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/activitypoints/core/category"
	"github.com/trezcool/activitypoints/core/user"
)

type tutorApi struct {
	usrSvc   user.Service
	catSvc   category.Service
	validate *validator.Validate
}

// registerTutorAPI mounts the Tutor Administration endpoints; the group is
// already gated by the JWT + tutor middlewares.
func registerTutorAPI(g *echo.Group, deps ServerDeps) {
	api := tutorApi{
		usrSvc:   deps.UserSvc,
		catSvc:   deps.CategorySvc,
		validate: deps.Validate,
	}

	g.GET("/students", api.queryStudents)
	g.POST("/students", api.createStudent)
	g.PUT("/students/:id", api.updateStudent)
	g.DELETE("/students/:id", api.deleteStudent)
	g.POST("/students/:id/reset-password", api.resetStudentPassword)

	g.GET("/categories", api.queryCategories)
	g.POST("/categories", api.createCategory)
	g.PUT("/categories/:id", api.updateCategory)
	g.DELETE("/categories/:id", api.deleteCategory)
}

// Student handlers

func (api *tutorApi) queryStudents(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	students, err := api.usrSvc.FilterStudents(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "filtering students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, StudentsResponse{Students: students})
}

func (api *tutorApi) createStudent(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, StudentResponse{Student: usr})
}

func (api *tutorApi) updateStudent(ctx echo.Context) error {
	var data user.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, StudentResponse{Student: usr})
}

func (api *tutorApi) deleteStudent(ctx echo.Context) error {
	if err := api.usrSvc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Student deleted"})
}

func (api *tutorApi) resetStudentPassword(ctx echo.Context) error {
	if _, err := api.usrSvc.ResetStudentPassword(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "resetting student password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Temporary password sent to the student's email"})
}

// Category handlers

func (api *tutorApi) queryCategories(ctx echo.Context) error {
	cats, err := api.catSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []category.Category{}
	}
	return ctx.JSON(http.StatusOK, CategoriesResponse{Categories: cats})
}

func (api *tutorApi) createCategory(ctx echo.Context) error {
	var data category.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.catSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, CategoryResponse{Category: cat})
}

func (api *tutorApi) updateCategory(ctx echo.Context) error {
	var data category.UpdateCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.catSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, CategoryResponse{Category: cat})
}

func (api *tutorApi) deleteCategory(ctx echo.Context) error {
	if err := api.catSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Category deleted"})
}

type (
	StudentsResponse struct {
		Students []user.User `json:"students"`
	}

	StudentResponse struct {
		Student user.User `json:"student"`
	}

	CategoriesResponse struct {
		Categories []category.Category `json:"categories"`
	}

	CategoryResponse struct {
		Category category.Category `json:"category"`
	}
)
