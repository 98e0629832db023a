package logging

import (
	"context"
	"strings"

	"github.com/shinyyama/mercado-backend/internal/reqctx"
	"go.uber.org/zap"
)

// New builds the process logger. Production gets JSON output at info level,
// anything else gets the colored development console encoder.
func New(appEnv string) (*zap.Logger, error) {
	if strings.EqualFold(appEnv, "production") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// FromContext decorates base with the request id and uid carried on ctx.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 2)
	if rid := reqctx.RequestID(ctx); rid != "" {
		fields = append(fields, zap.String("rid", rid))
	}
	if uid := reqctx.UID(ctx); uid != "" {
		fields = append(fields, zap.String("uid", uid))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
