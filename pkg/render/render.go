// Package render writes view documents and project listings as JSON, YAML,
// a terminal report or an HTML chart.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
	FormatPlot = "plot"

	formatYMLAlias  = "yml"
	formatHTMLAlias = "html"
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))

	switch normalized {
	case formatYMLAlias:
		return FormatYAML
	case formatHTMLAlias:
		return FormatPlot
	default:
		return normalized
	}
}

// DocumentFormats lists the formats a view document can be rendered in.
func DocumentFormats() []string {
	return []string{FormatJSON, FormatYAML, FormatText, FormatPlot}
}

// ListingFormats lists the formats a project listing can be rendered in.
func ListingFormats() []string {
	return []string{FormatJSON, FormatYAML, FormatText}
}

// ValidateFormat checks whether a format is in the provided support list.
func ValidateFormat(format string, supported []string) (string, error) {
	normalized := NormalizeFormat(format)
	if slices.Contains(supported, normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Document writes doc in format.
func Document(doc *view.Document, format string, writer io.Writer) error {
	switch NormalizeFormat(format) {
	case FormatJSON:
		return writeJSON(doc, writer)
	case FormatYAML:
		return writeYAML(doc, writer)
	case FormatText:
		return writeDocumentText(doc, writer)
	case FormatPlot:
		return writePlot(doc, writer)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Listing writes project summaries in format.
func Listing(summaries []catalog.Summary, format string, writer io.Writer) error {
	if summaries == nil {
		summaries = []catalog.Summary{}
	}

	switch NormalizeFormat(format) {
	case FormatJSON:
		return writeJSON(summaries, writer)
	case FormatYAML:
		return writeYAML(summaries, writer)
	case FormatText:
		return writeListingText(summaries, writer)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// JSON writes v as a single line of JSON.
func JSON(v any, writer io.Writer) error {
	return writeJSON(v, writer)
}

func writeJSON(v any, writer io.Writer) error {
	err := json.NewEncoder(writer).Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

func writeYAML(v any, writer io.Writer) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	_, err = writer.Write(data)
	if err != nil {
		return fmt.Errorf("yaml write: %w", err)
	}

	return nil
}
