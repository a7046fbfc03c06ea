package authtoken

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const metadataKey = "authorization"

// claimsKey is the context key under which validated Claims are stored.
type claimsKey struct{}

// FromContext returns the Claims validated by the interceptor, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func extractToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(metadataKey)
	if len(values) == 0 {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(values[0], prefix) {
		return "", false
	}
	return strings.TrimPrefix(values[0], prefix), true
}

// UnaryServerInterceptor enforces a "Bearer <token>" authorization header,
// validated against the manager's secret. A no-op when cfg.Enabled is false.
func UnaryServerInterceptor(m *Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if m == nil || !m.config.Enabled {
			return handler(ctx, req)
		}

		token, ok := extractToken(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		claims, err := m.Validate(token)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid bearer token: %v", err)
		}

		ctx = context.WithValue(ctx, claimsKey{}, claims)
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of UnaryServerInterceptor.
func StreamServerInterceptor(m *Manager) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if m == nil || !m.config.Enabled {
			return handler(srv, ss)
		}

		token, ok := extractToken(ss.Context())
		if !ok {
			return status.Error(codes.Unauthenticated, "missing bearer token")
		}

		claims, err := m.Validate(token)
		if err != nil {
			return status.Errorf(codes.Unauthenticated, "invalid bearer token: %v", err)
		}

		wrapped := &authenticatedStream{
			ServerStream: ss,
			ctx:          context.WithValue(ss.Context(), claimsKey{}, claims),
		}
		return handler(srv, wrapped)
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
