package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ChatRequest is the JSON body accepted by every chat endpoint.
type ChatRequest struct {
	Message string `json:"message" binding:"notblank"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// notBlankMessage is reported for the only rule ChatRequest carries.
const notBlankMessage = "must not be blank"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

// bindChatRequest parses and validates the request body. On failure it
// writes the 400 response and returns false; the provider is never called.
func (ctrl *Controller) bindChatRequest(c *gin.Context) (ChatRequest, bool) {
	var req ChatRequest
	err := c.ShouldBindJSON(&req)
	if err == nil {
		return req, true
	}

	// an empty body carries no message at all
	if errors.Is(err, io.EOF) {
		ctrl.validationErrorHandler(c, []FieldError{{Field: "message", Message: notBlankMessage}})
		return req, false
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fieldErrors := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fieldErrors = append(fieldErrors, FieldError{Field: fe.Field(), Message: notBlankMessage})
		}
		ctrl.validationErrorHandler(c, fieldErrors)
		return req, false
	}

	ctrl.ErrorHandler(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return req, false
}

func (ctrl *Controller) validationErrorHandler(c *gin.Context, fieldErrors []FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":       "validation failed",
		"fieldErrors": fieldErrors,
	})
}
