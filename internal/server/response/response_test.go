package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	resp := decode(t, w)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"status": "healthy"}, resp.Data)
}

func TestFail(t *testing.T) {
	resp := Fail("TEST_ERROR", "Test error message", "Additional details")
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_ERROR", resp.Error.Code)
	assert.Equal(t, "Additional details", resp.Error.Details)
}

func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"lookup miss", errors.NewLookupMiss("partition", "07/03"), http.StatusNotFound, "NOT_FOUND"},
		{"schema", errors.NewSchemaError("query", "limit", "gt=0"), http.StatusBadRequest, "BAD_REQUEST"},
		{"storage", errors.WrapStorage("read", "/x", errors.New("io")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("password=secret"))
	assert.NotContains(t, w.Body.String(), "secret")
}
