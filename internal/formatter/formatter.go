// package formatter exports playlist snapshots to JSON, YAML, CSV, XLSX, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/charmbracelet/glamour"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatXLSX, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

type jsonExport struct {
	Name   string          `json:"name"`
	Tracks models.Playlist `json:"tracks"`
}

// ExportToJSON renders {"name": ..., "tracks": {url: title}} with indentation.
func ExportToJSON(name string, pl models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(jsonExport{Name: name, Tracks: pl.Clone()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

type yamlTrack struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

type yamlExport struct {
	Name   string      `yaml:"name"`
	Tracks []yamlTrack `yaml:"tracks"`
}

// ExportToYAML renders the playlist as a name and an ordered list of tracks, sorted by URL.
func ExportToYAML(name string, pl models.Playlist) ([]byte, error) {
	out := yamlExport{Name: name, Tracks: make([]yamlTrack, 0, len(pl))}
	for _, url := range pl.URLs() {
		out.Tracks = append(out.Tracks, yamlTrack{URL: url, Title: pl[url]})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return data, nil
}

// xlsxSheet is the worksheet holding the tracks.
const xlsxSheet = "Tracks"

// ExportToXLSX renders a workbook with one Tracks sheet of URL and Title columns sorted by URL.
func ExportToXLSX(name string, pl models.Playlist) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: name}); err != nil {
		return nil, fmt.Errorf("failed to set workbook title: %w", err)
	}

	rows := [][]string{{"URL", "Title"}}
	for _, url := range pl.URLs() {
		rows = append(rows, []string{url, pl[url]})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write XLSX row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV renders URL,Title rows sorted by URL.
func ExportToCSV(name string, pl models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"URL", "Title"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, url := range pl.URLs() {
		if err := writer.Write([]string{url, pl[url]}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading and a numbered list of linked titles.
func ExportToMarkdown(name string, pl models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", name)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(pl))

	if len(pl) == 0 {
		buf.WriteString("_No tracks._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Tracks\n\n")
	for i, url := range pl.URLs() {
		fmt.Fprintf(&buf, "%d. [%s](%s)\n", i+1, escapeMarkdown(pl[url]), url)
	}
	return buf.Bytes(), nil
}

// RenderMarkdown renders the Markdown export for a terminal.
//
// An empty style picks light or dark from the terminal background; "notty" disables styling.
func RenderMarkdown(name string, pl models.Playlist, style string, width int) (string, error) {
	md, err := ExportToMarkdown(name, pl)
	if err != nil {
		return "", err
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(string(md))
}

// ExportToText renders a plain listing.
func ExportToText(name string, pl models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(pl))

	for i, url := range pl.URLs() {
		fmt.Fprintf(&buf, "%d. %s\n   %s\n", i+1, pl[url], url)
	}
	return buf.Bytes(), nil
}

// Export renders pl in the given format.
func Export(format Format, name string, pl models.Playlist) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(name, pl)
	case FormatCSV:
		return ExportToCSV(name, pl)
	case FormatMarkdown:
		return ExportToMarkdown(name, pl)
	case FormatText:
		return ExportToText(name, pl)
	case FormatYAML:
		return ExportToYAML(name, pl)
	case FormatXLSX:
		return ExportToXLSX(name, pl)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes an export to path and returns the path written.
//
// Defaults to {slug}_tracks.{ext} in the working directory.
func WriteExport(format Format, name string, pl models.Playlist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", Slug(name), format.Extension())
	}

	data, err := Export(format, name, pl)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and collapses everything but letters and digits into single dashes.
func Slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "playlist"
	}
	return s
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
