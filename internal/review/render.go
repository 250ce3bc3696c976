package review

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	_ "embed"

	"go.uber.org/zap"
)

//go:embed report.tmpl
var reportTemplate string

var textReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"join": strings.Join,
}).Parse(reportTemplate))

// ReportRenderer publishes a finished report.
type ReportRenderer interface {
	Render(ctx context.Context, r *Report) error
}

// JSONFileRenderer writes the report as indented JSON. An empty Path creates a temporary file.
type JSONFileRenderer struct {
	Path   string
	Logger *zap.Logger
}

func (j *JSONFileRenderer) Render(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		file *os.File
		err  error
	)
	if path := strings.TrimSpace(j.Path); path != "" {
		file, err = os.Create(path)
	} else {
		file, err = os.CreateTemp("", "interview_*.json")
	}
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	j.Path = file.Name()
	if j.Logger != nil {
		j.Logger.Info("report saved", zap.String("filename", file.Name()))
	}
	return nil
}

// TextRenderer prints a human readable report.
type TextRenderer struct {
	W io.Writer
}

func (t *TextRenderer) Render(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := textReport.Execute(t.W, r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// Renderers fans a report out to several renderers, stopping at the first failure.
type Renderers []ReportRenderer

func (rs Renderers) Render(ctx context.Context, r *Report) error {
	for _, renderer := range rs {
		if err := renderer.Render(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
