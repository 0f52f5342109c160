package exam

import (
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

func (h *Handler) CreateTest(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperror.AccessTokenRequired()
	}

	var req CreateTestRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	test, err := h.service.CreateTest(c.Request().Context(), claims, c.Param("organizationId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status": "success",
		"test":   test,
	})
}

func (h *Handler) AddQuestion(c echo.Context) error {
	var req CreateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	question, err := h.service.AddQuestion(c.Request().Context(), c.Param("organizationId"), c.Param("testId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":   "success",
		"question": question,
	})
}

func (h *Handler) GetTest(c echo.Context) error {
	test, err := h.service.GetTest(c.Request().Context(), c.Param("organizationId"), c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"test":   test,
	})
}

func (h *Handler) PublishTest(c echo.Context) error {
	if err := h.service.PublishTest(c.Request().Context(), c.Param("organizationId"), c.Param("testId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Test published",
	})
}
