package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/formatter"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// PlaylistExportJob is one playlist waiting for a worker.
type PlaylistExportJob struct {
	Name   string
	Tracks models.Playlist
	Path   string
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Playlist string // Playlist name
	File     string // Written file (empty on failure)
	Tracks   int    // Number of tracks written
	Success  bool
	Error    error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Format            formatter.Format
	Results           []PlaylistExportResult // Sorted by playlist name
}

// Engine runs playlist tasks.
type Engine struct {
	logger *log.Logger
}

// NewEngine creates an [Engine]. A nil logger falls back to the shared default.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
