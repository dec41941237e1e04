package v1

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/atelier-api/internal/api/handler/v1/response"
	"github.com/atelierhq/atelier-api/internal/api/middleware"
	"github.com/atelierhq/atelier-api/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	ListOrganizers(ctx context.Context) ([]domain.User, error)
}

// getUserFromContext resolves the authenticated user placed in the gin
// context by the JWT middleware.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	raw, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.User{}, response.ErrUnauthorized("not authenticated")
	}

	userID, ok := raw.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("not authenticated")
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized("unknown user")
	}

	return user, nil
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %v", name)
	}

	return uint(value), nil
}

var errOrganizerOnly = errors.New("organizer role required")

// requireOrganizer guards the endpoints reserved to organizers.
func requireOrganizer(user domain.User) *response.Err {
	if !user.IsOrganizer() {
		return response.ErrForbidden(errOrganizerOnly.Error())
	}

	return nil
}
