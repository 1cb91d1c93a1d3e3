package router

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nortecrm/whatsapp-bridge/pkg/log"
)

// Response is the uniform JSON body of the control surface. Failures carry
// an error message and an appropriate 4xx/5xx status, never a stack trace.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func logSuccess(c *fiber.Ctx, code int, message string) {
	log.Print(c).Infof("%d %v", code, message)
}

func logError(c *fiber.Ctx, code int, message string) {
	log.Print(c).Errorf("%d %v", code, message)
}

func ResponseSuccess(c *fiber.Ctx, message string) error {
	response := Response{
		Success: true,
		Code:    http.StatusOK,
	}

	if strings.TrimSpace(message) == "" {
		message = http.StatusText(response.Code)
	}
	response.Message = message

	logSuccess(c, response.Code, response.Message)
	return c.Status(response.Code).JSON(response)
}

func ResponseSuccessWithData(c *fiber.Ctx, message string, data interface{}) error {
	response := Response{
		Success: true,
		Code:    http.StatusOK,
		Data:    data,
	}

	if strings.TrimSpace(message) == "" {
		message = http.StatusText(response.Code)
	}
	response.Message = message

	logSuccess(c, response.Code, response.Message)
	return c.Status(response.Code).JSON(response)
}

func ResponseNoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusNotFound, message)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusBadRequest, message)
}

func ResponseInternalError(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusInternalServerError, message)
}

func ResponseBadGateway(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusBadGateway, message)
}

func responseError(c *fiber.Ctx, code int, message string) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(code)
	}
	response := Response{
		Success: false,
		Code:    code,
		Error:   message,
	}

	logError(c, code, message)
	return c.Status(code).JSON(response)
}
