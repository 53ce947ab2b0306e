package permkit

import (
	"context"
	"net/http"
)

// RoleVerifier answers role checks for the middleware. Satisfied by *Ledger.
type RoleVerifier interface {
	HasRole(ctx context.Context, tokenID uint64, address string) (bool, error)
	IsAdmin(ctx context.Context, address string, setID uint64) (bool, error)
}

// Middleware provides HTTP middleware gating handlers on role-token
// holdings.
type Middleware struct {
	verifier     RoleVerifier
	getOperator  func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := permkit.NewMiddleware(ledger,
//	    permkit.WithOperatorExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-Wallet-Address")
//	    }),
//	)
//	http.Handle("/mint", mw.RequireAdmin(0)(mintHandler))
func NewMiddleware(verifier RoleVerifier, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		verifier:     verifier,
		getOperator:  defaultGetOperator,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithOperatorExtractor sets a custom function to extract the caller address
// from a request.
func WithOperatorExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getOperator = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetOperator(r *http.Request) string {
	if operator := GetOperator(r.Context()); operator != "" {
		return operator
	}
	return r.Header.Get("X-Operator")
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsInvalidArgument(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RequireRole gates a handler on the caller holding a role token. The caller
// address reaches the wrapped handler through the request context.
func (m *Middleware) RequireRole(tokenID uint64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := m.getOperator(r)
			if operator == "" {
				m.errorHandler(w, r, NewError(ErrNoOperator, "no caller address in request"))
				return
			}

			holds, err := m.verifier.HasRole(r.Context(), tokenID, operator)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !holds {
				m.errorHandler(w, r, NewError(ErrMissingRole, "caller lacks the required role").
					WithOperator(operator).
					WithRequired(tokenID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}

// RequireAdmin gates a handler on the caller administering a permission set.
// Set 0 demands the global superuser role.
func (m *Middleware) RequireAdmin(setID uint64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := m.getOperator(r)
			if operator == "" {
				m.errorHandler(w, r, NewError(ErrNoOperator, "no caller address in request"))
				return
			}

			ok, err := m.verifier.IsAdmin(r.Context(), operator, setID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !ok {
				m.errorHandler(w, r, NewError(ErrAdminRoleRequired, "caller does not administer this permission set").
					WithOperator(operator).
					WithSet(setID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}
