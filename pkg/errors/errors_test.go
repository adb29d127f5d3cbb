package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/panevka/nhsmongifyer/pkg/errors"
)

func TestTransportError(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		err := pkgerrors.NewTransportError("nfz", "agreements", 404, "missing")
		assert.Equal(t, "nfz agreements: status 404: missing", err.Error())
		assert.True(t, pkgerrors.IsTransport(err))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		err := pkgerrors.NewTransportError("geoapify", "geocode/search", 429, "slow down")
		assert.True(t, pkgerrors.IsRateLimited(err))
		assert.True(t, errors.Is(err, pkgerrors.ErrTransport))
	})

	t.Run("server error", func(t *testing.T) {
		err := pkgerrors.NewTransportError("nfz", "providers", 503, "down")
		assert.True(t, errors.Is(err, pkgerrors.ErrUnavailable))
	})

	t.Run("connection failure", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.WrapTransport("nfz", "agreements", base)
		assert.ErrorIs(t, err, base)
		assert.True(t, pkgerrors.IsTransport(err))
		assert.Nil(t, pkgerrors.WrapTransport("nfz", "agreements", nil))
	})
}

func TestSchemaError(t *testing.T) {
	err := &pkgerrors.SchemaError{
		Schema: "AgreementInfo",
		Fields: []pkgerrors.FieldError{
			{Path: "AgreementInfo.amount", Reason: "gt"},
			{Path: "AgreementInfo.year", Reason: "required"},
		},
	}
	assert.Equal(t, "AgreementInfo failed validation: AgreementInfo.amount: gt; AgreementInfo.year: required", err.Error())
	assert.Equal(t, []string{"AgreementInfo.amount", "AgreementInfo.year"}, err.Paths())
	assert.True(t, pkgerrors.IsValidationError(err))

	wrapped := fmt.Errorf("page 3: %w", err)
	var se *pkgerrors.SchemaError
	assert.True(t, errors.As(wrapped, &se))
	assert.Len(t, se.Fields, 2)
}

func TestStorageAndLookup(t *testing.T) {
	err := pkgerrors.WrapStorage("write", "/tmp/x.json", errors.New("disk full"))
	assert.True(t, pkgerrors.IsStorage(err))
	assert.Contains(t, err.Error(), "disk full")

	miss := pkgerrors.NewLookupMiss("provider", "P1")
	assert.Equal(t, "no provider match for P1", miss.Error())
	assert.True(t, pkgerrors.IsNotFound(miss))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   pkgerrors.Status
		reason string
	}{
		{"nil", nil, pkgerrors.Success, ""},
		{"schema", pkgerrors.NewSchemaError("x", "a", "required"), pkgerrors.Skip, "schema"},
		{"transport", pkgerrors.NewTransportError("nfz", "providers", 500, ""), pkgerrors.Skip, "transport"},
		{"lookup miss", pkgerrors.NewLookupMiss("geocode", "P1"), pkgerrors.Skip, "not_found"},
		{"storage", pkgerrors.WrapStorage("write", "f", errors.New("boom")), pkgerrors.Fatal, "storage"},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), pkgerrors.Fatal, "canceled"},
		{"partition", &pkgerrors.PartitionError{Partition: "07/03/2025", Stage: "harvest", Err: errors.New("x")}, pkgerrors.Fatal, "error"},
		{"unknown", errors.New("mystery"), pkgerrors.Fatal, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pkgerrors.Classify(tt.err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.want == pkgerrors.Success, got.OK())
			assert.Equal(t, tt.reason, got.Reason())
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", pkgerrors.Success.String())
	assert.Equal(t, "skip", pkgerrors.Skip.String())
	assert.Equal(t, "fatal", pkgerrors.Fatal.String())
	assert.Equal(t, "unknown", pkgerrors.Status(9).String())
}
