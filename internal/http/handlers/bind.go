package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON decodes the body into out. Validator failures fall through
// to the handler's own field checks (which carry the user-facing
// messages); only unparseable JSON is rejected here.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		return true
	}

	RespondBadRequest(ctx, "Invalid request body")
	return false
}
