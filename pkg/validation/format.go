package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/homeloan/pkg/constants"
)

// OutputFormats lists the formats the CLI can print.
var OutputFormats = []string{constants.OutputFormatPretty, constants.OutputFormatCSV}

// ValidateOutputFormat checks if the output format is one of OutputFormats.
// Matching is case sensitive.
func ValidateOutputFormat(format string) error {
	for _, supported := range OutputFormats {
		if format == supported {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, got %q", strings.Join(OutputFormats, " or "), format)
}
