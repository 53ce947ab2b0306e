package permkit

import (
	"context"
)

// Context keys for permkit values.
type contextKey string

const (
	contextKeyOperator  contextKey = "permkit:operator"
	contextKeyIPAddress contextKey = "permkit:ip_address"
	contextKeyUserAgent contextKey = "permkit:user_agent"
	contextKeyRequestID contextKey = "permkit:request_id"
)

// WithOperator adds the authenticated caller identity to the context. Every
// mutating ledger operation authorizes and attributes its events against
// this identity; the ledger never authenticates callers itself.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, contextKeyOperator, operator)
}

// GetOperator retrieves the caller identity from context.
// Returns empty string if not set.
func GetOperator(ctx context.Context) string {
	if v := ctx.Value(contextKeyOperator); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MustGetOperator retrieves the caller identity from context.
// Panics if not set.
func MustGetOperator(ctx context.Context) string {
	operator := GetOperator(ctx)
	if operator == "" {
		panic("permkit: operator not in context")
	}
	return operator
}

// WithIPAddress adds the client IP address to the context (for the event log).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	if v := ctx.Value(contextKeyIPAddress); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUserAgent adds the user agent to the context (for the event log).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	if v := ctx.Value(contextKeyUserAgent); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context (for event correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CallContext holds all caller-related information from context.
type CallContext struct {
	Operator  string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetCallContext extracts all caller information from context.
func GetCallContext(ctx context.Context) CallContext {
	return CallContext{
		Operator:  GetOperator(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithCallContext adds all caller information to context at once.
func WithCallContext(ctx context.Context, cc CallContext) context.Context {
	if cc.Operator != "" {
		ctx = WithOperator(ctx, cc.Operator)
	}
	if cc.IPAddress != "" {
		ctx = WithIPAddress(ctx, cc.IPAddress)
	}
	if cc.UserAgent != "" {
		ctx = WithUserAgent(ctx, cc.UserAgent)
	}
	if cc.RequestID != "" {
		ctx = WithRequestID(ctx, cc.RequestID)
	}
	return ctx
}
