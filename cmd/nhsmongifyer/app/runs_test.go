package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

func TestParseRunFile(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []nfz.RunConfig
	}{
		{
			name: "yaml with codes and names",
			data: `runs:
  - branch: "07"
    year: 2024
    service_type: "03"
  - branch: slaskie
    service_type: leczenieszpitalne
`,
			want: []nfz.RunConfig{
				{Branch: nfz.Mazowieckie, Year: 2024, ServiceType: nfz.Hospital},
				{Branch: "12", Year: constants.DefaultYear, ServiceType: nfz.Hospital},
			},
		},
		{
			name: "json",
			data: `{"runs": [{"branch": "07", "year": 2025, "service_type": "03"}]}`,
			want: []nfz.RunConfig{{Branch: nfz.Mazowieckie, Year: 2025, ServiceType: nfz.Hospital}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := ParseRunFile([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, runs)
			assert.NoError(t, ingest.ValidateConfigs(runs))
		})
	}
}

func TestParseRunFileUnknownBranchFailsValidation(t *testing.T) {
	runs, err := ParseRunFile([]byte(`runs: [{branch: "99", year: 2025, service_type: "03"}]`))
	require.NoError(t, err)
	assert.Equal(t, nfz.Branch("99"), runs[0].Branch)
	assert.True(t, errors.IsValidationError(ingest.ValidateConfigs(runs)))
}

func TestParseRunFileRejectsUnknownFields(t *testing.T) {
	_, err := ParseRunFile([]byte(`runs: [{branch: "07", region: "x"}]`))
	assert.True(t, errors.IsValidationError(err))
}

func TestLoadRunFileMissing(t *testing.T) {
	_, err := LoadRunFile(filepath.Join(t.TempDir(), "runs.yaml"))
	assert.True(t, errors.IsStorage(err))
}

func TestRunFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`runs: [{branch: "07", service_type: "03"}]`), 0o600))

	fromFile, err := (&runFlags{file: path}).configs()
	require.NoError(t, err)
	assert.Len(t, fromFile, 1)

	fromFlags, err := (&runFlags{branch: "mazowieckie", service: "03", year: 2023}).configs()
	require.NoError(t, err)
	assert.Equal(t, []nfz.RunConfig{{Branch: nfz.Mazowieckie, Year: 2023, ServiceType: nfz.Hospital}}, fromFlags)

	_, err = (&runFlags{}).configs()
	assert.ErrorIs(t, err, errors.ErrConfig)
}
