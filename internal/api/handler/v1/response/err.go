package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	statusCode int // HTTP status code, not serialized.

	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Err) Error() string {
	return fmt.Sprintf("%v - %v", e.Code, e.Msg)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		statusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Msg:        err.Error(),
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		statusCode: http.StatusUnauthorized,
		Code:       "WRONG_CREDENTIALS",
		Msg:        err.Error(),
	}
}

func ErrUnauthorized(msg string) *Err {
	return &Err{
		statusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Msg:        msg,
	}
}

func ErrForbidden(msg string) *Err {
	return &Err{
		statusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Msg:        msg,
	}
}

func ErrNotFound(entity, key string, value any) *Err {
	return &Err{
		statusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Msg:        fmt.Sprintf("%v not found (%v = %v)", entity, key, value),
	}
}

// ErrConflict covers expected, recoverable business conflicts: duplicate
// registrations, full workshops, transitions from the wrong state.
func ErrConflict(err error) *Err {
	return &Err{
		statusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Msg:        err.Error(),
	}
}

func ErrUnprocessable(err error) *Err {
	return &Err{
		statusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE",
		Msg:        err.Error(),
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		statusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Msg:        err.Error(),
	}
}

// RenderErr writes the error as JSON. Internal errors are logged with the
// request ID and masked in the payload.
func RenderErr(ctx *gin.Context, err *Err) {
	if err.statusCode == http.StatusInternalServerError {
		zap.L().Error("internal server error",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.String("error", err.Msg),
		)

		err.Msg = "internal server error"
	}

	ctx.AbortWithStatusJSON(err.statusCode, err)
}
