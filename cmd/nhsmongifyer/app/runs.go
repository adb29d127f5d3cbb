package app

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// runFlags selects the partitions of a command.
type runFlags struct {
	file    string
	branch  string
	service string
	year    int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "runs", "", "YAML or JSON file listing runs: [{branch, year, service_type}]")
	cmd.Flags().StringVar(&f.branch, "branch", "", "branch code or region name, e.g. 07 or mazowieckie")
	cmd.Flags().StringVar(&f.service, "service", "", "service type code or name, e.g. 03 or LeczenieSzpitalne")
	cmd.Flags().IntVar(&f.year, "year", 0, "contract year (default current contract year)")
	cmd.MarkFlagsMutuallyExclusive("runs", "branch")
	cmd.MarkFlagsMutuallyExclusive("runs", "service")
}

// configs returns the selected partitions. Values are not validated here;
// the runner rejects invalid configs before any network call.
func (f *runFlags) configs() ([]nfz.RunConfig, error) {
	if f.file != "" {
		return LoadRunFile(f.file)
	}
	if f.branch == "" && f.service == "" {
		return nil, errors.NewConfigError("runs", "either --runs or --branch and --service is required", nil)
	}
	return []nfz.RunConfig{RunFromFlags(f.branch, f.service, f.year)}, nil
}

// LoadRunFile reads a run file. JSON files are accepted as YAML.
func LoadRunFile(path string) ([]nfz.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapStorage("read", path, err)
	}
	return ParseRunFile(data)
}

// ParseRunFile decodes a run file and fills unset years.
func ParseRunFile(data []byte) ([]nfz.RunConfig, error) {
	var file nfz.RunFile
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.WrapSchema("RunFile", err)
	}
	runs := make([]nfz.RunConfig, 0, len(file.Runs))
	for _, run := range file.Runs {
		runs = append(runs, run.WithDefaults())
	}
	return runs, nil
}

// RunFromFlags builds one run config from flag values.
func RunFromFlags(branch, service string, year int) nfz.RunConfig {
	var cfg nfz.RunConfig
	_ = cfg.Branch.UnmarshalText([]byte(strings.TrimSpace(branch)))
	_ = cfg.ServiceType.UnmarshalText([]byte(strings.TrimSpace(service)))
	cfg.Year = year
	return cfg.WithDefaults()
}
