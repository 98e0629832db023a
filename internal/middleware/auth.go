package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/reqctx"
)

// DevUserHeader carries the caller's uid when dev auth is enabled.
const DevUserHeader = "X-User-Id"

// TokenVerifier turns a bearer token into a uid.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type FirebaseAuth struct {
	client *auth.Client
}

func NewFirebaseAuth(ctx context.Context, projectID string) (*FirebaseAuth, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseAuth{client: client}, nil
}

func (f *FirebaseAuth) Verify(ctx context.Context, token string) (string, error) {
	t, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	return t.UID, nil
}

// Profile reads the identity provider's record for uid.
func (f *FirebaseAuth) Profile(ctx context.Context, uid string) (*model.User, error) {
	rec, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &model.User{
		UID:       rec.UID,
		Name:      rec.DisplayName,
		Email:     rec.Email,
		AvatarURL: rec.PhotoURL,
	}, nil
}

type AuthMiddleware struct {
	verifier TokenVerifier
	devAuth  bool
}

// NewAuthMiddleware accepts a nil verifier; with devAuth set the
// X-User-Id header is trusted when no bearer token is sent.
func NewAuthMiddleware(verifier TokenVerifier, devAuth bool) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, devAuth: devAuth}
}

func unauthorized(c echo.Context, code, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
		"error": {"code": code, "message": msg},
	})
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var uid string
		authz := req.Header.Get(echo.HeaderAuthorization)
		switch {
		case strings.HasPrefix(authz, "Bearer ") && m.verifier != nil:
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			verified, err := m.verifier.Verify(req.Context(), tokenStr)
			if err != nil {
				return unauthorized(c, "invalid_token", "invalid or expired token")
			}
			uid = verified
		case m.devAuth:
			uid = strings.TrimSpace(req.Header.Get(DevUserHeader))
		}
		if uid == "" {
			return unauthorized(c, "unauthorized", "missing credentials")
		}
		c.Set("uid", uid)
		c.SetRequest(req.WithContext(reqctx.WithUID(req.Context(), uid)))
		return next(c)
	}
}
