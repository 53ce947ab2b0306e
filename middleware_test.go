package permkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier answers middleware role checks from an in-memory holdings map.
type fakeVerifier struct {
	holdings fakeHoldings
}

func (f fakeVerifier) HasRole(ctx context.Context, tokenID uint64, address string) (bool, error) {
	return f.holdings.HoldsToken(ctx, address, tokenID)
}

func (f fakeVerifier) IsAdmin(ctx context.Context, address string, setID uint64) (bool, error) {
	return NewAuthorizer(f.holdings).IsAdmin(ctx, address, setID)
}

func newTestVerifier() fakeVerifier {
	return fakeVerifier{holdings: fakeHoldings{
		"0xadmin":  {RoleAdmin},
		"0xscoped": {mustScopedRole(3, RoleAdmin)},
		"0xminter": {RoleMinter},
	}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(GetOperator(r.Context())))
	})
}

func TestNewMiddleware(t *testing.T) {
	verifier := newTestVerifier()

	mw := NewMiddleware(verifier)
	require.NotNil(t, mw)
	assert.NotNil(t, mw.getOperator)
	assert.NotNil(t, mw.errorHandler)

	customOperator := func(r *http.Request) string { return "0xcustom" }
	customErrorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusTeapot)
	}

	mw2 := NewMiddleware(verifier,
		WithOperatorExtractor(customOperator),
		WithErrorHandler(customErrorHandler),
	)

	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "0xcustom", mw2.getOperator(req))

	w := httptest.NewRecorder()
	mw2.errorHandler(w, req, nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestMiddlewareDefaultGetOperator(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithOperator(context.Background(), "0xfromctx"))
	assert.Equal(t, "0xfromctx", defaultGetOperator(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Operator", "0xfromheader")
	assert.Equal(t, "0xfromheader", defaultGetOperator(req))

	req = httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, defaultGetOperator(req))
}

func TestMiddlewareDefaultErrorHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing role",
			err:            NewError(ErrMissingRole, "caller lacks the required role"),
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Forbidden\n",
		},
		{
			name:           "admin required",
			err:            NewError(ErrAdminRoleRequired, "admin role required"),
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Forbidden\n",
		},
		{
			name:           "invalid role",
			err:            NewError(ErrInvalidRole, "invalid role"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request\n",
		},
		{
			name:           "generic error",
			err:            NewError(ErrDatabaseError, "database error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)

			defaultErrorHandler(w, req, tt.err)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestMiddlewareRequireRole(t *testing.T) {
	mw := NewMiddleware(newTestVerifier())
	handler := mw.RequireRole(RoleMinter)(okHandler())

	// Holder passes and the operator reaches the handler context.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Operator", "0xminter")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xminter", w.Body.String())

	// Non-holder is rejected.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Operator", "0xnobody")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing operator is rejected before any role check.
	req = httptest.NewRequest("GET", "/", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddlewareRequireAdmin(t *testing.T) {
	mw := NewMiddleware(newTestVerifier())

	globalHandler := mw.RequireAdmin(0)(okHandler())
	scopedHandler := mw.RequireAdmin(3)(okHandler())

	// The global admin passes everywhere.
	for _, handler := range []http.Handler{globalHandler, scopedHandler} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Operator", "0xadmin")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// The scoped admin passes only within its own set.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Operator", "0xscoped")
	w := httptest.NewRecorder()
	scopedHandler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Operator", "0xscoped")
	w = httptest.NewRecorder()
	globalHandler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddlewareOperatorFromContext(t *testing.T) {
	mw := NewMiddleware(newTestVerifier())
	handler := mw.RequireRole(RoleAdmin)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithOperator(context.Background(), "0xadmin"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xadmin", w.Body.String())
}
