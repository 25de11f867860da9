// Package export renders plan trees as JSON or YAML documents and writes
// them to a blob sink on the local filesystem or in an S3 bucket.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrFormatUnknown is returned for a format other than json or yaml.
var ErrFormatUnknown = errors.New("unknown export format")

// Document is the exported artifact.
type Document struct {
	SchemaVersion int                `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt    time.Time          `json:"exportedAt" yaml:"exportedAt"`
	Plans         []types.PlanDetail `json:"plans" yaml:"plans"`
}

// NewDocument wraps plans with the current schema version.
func NewDocument(at time.Time, plans ...types.PlanDetail) Document {
	if plans == nil {
		plans = []types.PlanDetail{}
	}
	return Document{SchemaVersion: types.SchemaVersion, ExportedAt: at.UTC(), Plans: plans}
}

// Render encodes v in format. An empty format means JSON.
func Render(v any, format string) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormatUnknown, format)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
