package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

// DecodeResponse reads and closes the body. Non-2xx statuses become a
// TransportError; a 2xx body that is not JSON becomes a SchemaError.
func DecodeResponse(resp *http.Response, service, endpoint string) (json.RawMessage, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransport(service, endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.NewTransportError(service, endpoint, resp.StatusCode, truncate(string(body)))
	}

	if !json.Valid(body) {
		return nil, errors.NewSchemaError(endpoint, "", "response body is not JSON")
	}
	return body, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
