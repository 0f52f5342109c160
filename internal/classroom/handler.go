package classroom

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateClass(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperror.AccessTokenRequired()
	}

	var req CreateClassRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	class, err := h.service.CreateClass(c.Request().Context(), claims, c.Param("organizationId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status": "success",
		"class":  class,
	})
}

func (h *Handler) ListClasses(c echo.Context) error {
	classes, err := h.service.ListClasses(c.Request().Context(), c.Param("organizationId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"classes": classes,
	})
}

func (h *Handler) EnrollStudents(c echo.Context) error {
	var req EnrollStudentsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	count, err := h.service.EnrollStudents(c.Request().Context(), c.Param("organizationId"), c.Param("classId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"count":   count,
		"message": fmt.Sprintf("%d student(s) successfully enrolled", count),
	})
}

func (h *Handler) RemoveStudent(c echo.Context) error {
	err := h.service.RemoveStudent(c.Request().Context(),
		c.Param("organizationId"), c.Param("classId"), c.Param("studentId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Student successfully removed from class",
	})
}

func (h *Handler) AssignTest(c echo.Context) error {
	var req AssignTestRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	assignment, err := h.service.AssignTest(c.Request().Context(), c.Param("organizationId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":     "success",
		"assignment": assignment,
	})
}
