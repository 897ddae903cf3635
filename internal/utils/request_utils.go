package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-auth/internal/schemas"
)

// WriteAndLogResponse encodes the response object to JSON and writes it to the HTTP response
// with the provided status code.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the underlying error and sends a generic error response
// with the specified status code. The message is what the caller sees, err is
// what the logs see.
func WriteAndLogError(ctx *gin.Context, message string, statusCode int, err error) {
	LogMessageWithFields(ctx, "error", "Error occurred: "+err.Error())
	LogMessageWithFields(ctx, "error", "Returning: "+message)
	ctx.JSON(statusCode, &schemas.ErrorDTO{Error: message})
}

// WriteValidationError sends a field-keyed error map with status 400.
func WriteValidationError(ctx *gin.Context, fieldErrors schemas.ValidationErrorDTO) {
	LogMessageWithFields(ctx, "info", "Request failed validation")
	ctx.JSON(http.StatusBadRequest, fieldErrors)
}

// DecodeRequestBody binds the JSON request body into target. On a malformed
// body it responds with a 400 and returns the error so the handler can bail.
func DecodeRequestBody(ctx *gin.Context, target interface{}) error {
	if err := ctx.ShouldBindJSON(target); err != nil {
		WriteAndLogError(ctx, "The request body could not be parsed.", http.StatusBadRequest, err)
		return err
	}
	return nil
}

// FieldViolations runs tag validation and returns the violations as a
// field-keyed map without writing a response, so callers can merge further
// per-field checks into the same response.
func FieldViolations(target interface{}) (schemas.ValidationErrorDTO, error) {
	err := GetValidator().Validate.Struct(target)
	if err == nil {
		return schemas.ValidationErrorDTO{}, nil
	}

	fieldErrors, conversionOk := TranslateValidationErrors(err)
	if !conversionOk {
		return nil, err
	}
	return fieldErrors, nil
}

// ValidateStruct runs tag validation on the bound request struct. Violations
// are returned to the caller as a field-keyed error map.
func ValidateStruct(ctx *gin.Context, target interface{}) error {
	fieldErrors, err := FieldViolations(target)
	if err != nil {
		WriteAndLogError(ctx, schemas.ErrInternal, http.StatusInternalServerError, err)
		return err
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(ctx, fieldErrors)
		return errors.New("request failed validation")
	}
	return nil
}
