package nfz

import (
	"fmt"

	"github.com/panevka/nhsmongifyer/pkg/constants"
)

// RunConfig selects one (branch, service type, year) partition.
type RunConfig struct {
	Branch      Branch      `json:"branch" yaml:"branch" validate:"required,branch"`
	Year        int         `json:"year" yaml:"year" validate:"gt=0"`
	ServiceType ServiceType `json:"service_type" yaml:"service_type" validate:"required,servicetype"`
}

// RunFile is the on-disk list of partitions to process.
type RunFile struct {
	Runs []RunConfig `json:"runs" yaml:"runs" validate:"required,min=1,dive"`
}

// WithDefaults fills an unset year.
func (c RunConfig) WithDefaults() RunConfig {
	if c.Year == 0 {
		c.Year = constants.DefaultYear
	}
	return c
}

// String identifies the partition as branch/service/year.
func (c RunConfig) String() string {
	return fmt.Sprintf("%s/%s/%d", c.Branch, c.ServiceType, c.Year)
}

// UnmarshalText accepts a code or a region name. Unknown values are kept
// verbatim so validation can report them.
func (b *Branch) UnmarshalText(text []byte) error {
	if code, ok := ParseBranch(string(text)); ok {
		*b = code
		return nil
	}
	*b = Branch(text)
	return nil
}

// UnmarshalText accepts a code or a category name. Unknown values are kept
// verbatim so validation can report them.
func (s *ServiceType) UnmarshalText(text []byte) error {
	if code, ok := ParseServiceType(string(text)); ok {
		*s = code
		return nil
	}
	*s = ServiceType(text)
	return nil
}
