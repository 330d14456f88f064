package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
)

var fixedUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func withIdentity(r *http.Request, userID, sessionID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.SessionIDKey, sessionID)
	return r.WithContext(ctx)
}
