// Package render turns forecast data into downloadable report files.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/support/exception"
)

const moduleName = "render"

// Format identifies a report file format.
type Format string

// FormatXLSX is the spreadsheet report format.
const FormatXLSX Format = "xlsx"

// Report is a rendered file ready for storage: its suggested name, MIME
// type and payload.
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Generator renders a forecast into a report of one format.
type Generator interface {
	Format() Format
	Render(location string, generatedAt time.Time, info *provider.ForecastInfo) (*Report, error)
}

// Registry resolves generators by format.
type Registry struct {
	generators map[Format]Generator
}

// NewRegistry builds a registry from the given generators. A later
// generator for the same format replaces an earlier one.
func NewRegistry(generators ...Generator) *Registry {
	r := &Registry{generators: make(map[Format]Generator, len(generators))}
	for _, g := range generators {
		r.generators[g.Format()] = g
	}
	return r
}

// Get returns the generator for the format. An unknown format is caller
// misuse.
func (r *Registry) Get(format Format) (Generator, error) {
	g, ok := r.generators[format]
	if !ok {
		return nil, exception.Newf(exception.KindInvalidArgument, moduleName,
			"no generator registered for format '%s'", format)
	}
	return g, nil
}

// fileNameSanitizer strips characters that are unsafe in attachment names.
var fileNameSanitizer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_", ",", "",
)

// reportFileName builds the user-facing attachment name, e.g.
// "Прогноз_Москва_2026-08-31.xlsx".
func reportFileName(location string, generatedAt time.Time, format Format) string {
	return fmt.Sprintf("Прогноз_%s_%s.%s",
		fileNameSanitizer.Replace(location), generatedAt.Format("2006-01-02"), format)
}
