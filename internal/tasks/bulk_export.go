package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/ambiencectl/internal/formatter"
	"github.com/desertthunder/ambiencectl/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 50.0
	manifestFile     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Output directory (default: ambience_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	RateLimit  float64          // Files started per second (default: 50)
}

type manifestEntry struct {
	Playlist string `json:"playlist"`
	File     string `json:"file,omitempty"`
	Tracks   int    `json:"tracks"`
	Error    string `json:"error,omitempty"`
}

type manifest struct {
	Format     formatter.Format `json:"format"`
	ExportedAt time.Time        `json:"exported_at"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Playlists  []manifestEntry  `json:"playlists"`
}

// BulkExport writes every playlist in c to OutputDir using a worker pool, then writes a manifest.
//
// Cancelling ctx stops queueing; playlists already written stay on disk and the partial result is returned with ctx's error.
func (e *Engine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	c models.PlaylistCollection,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ambience_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := c.Names()
	result := &BulkExportResult{
		TotalPlaylists:  len(names),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]PlaylistExportResult, 0, len(names)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan PlaylistExportJob, len(names))
	results := make(chan PlaylistExportResult, len(names))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts.Format)
	}

	go func() {
		defer close(jobs)
		paths := filePaths(names, opts)
		for i, name := range names {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- PlaylistExportJob{Name: name, Tracks: c[name], Path: paths[name]}
			e.sendProgress(prog, queueUpdate(i+1, len(names), name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(names), res))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.Playlist, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(names), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Playlist < result.Results[j].Playlist
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	path := filepath.Join(opts.OutputDir, manifestFile)
	e.sendProgress(prog, manifestUpdate(path))
	if err := writeManifest(result, path); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = path

	e.logger.Info("bulk export finished",
		"dir", opts.OutputDir, "successful", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker exports playlists from the jobs channel until it closes.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	format formatter.Format,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportSinglePlaylist(job, format)
	}
}

func exportSinglePlaylist(j PlaylistExportJob, format formatter.Format) PlaylistExportResult {
	res := PlaylistExportResult{Playlist: j.Name, Tracks: len(j.Tracks)}

	path, err := formatter.WriteExport(format, j.Name, j.Tracks, j.Path)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", format, err)
		return res
	}
	res.File = path
	res.Success = true
	return res
}

// filePaths assigns each playlist a file named after its slug, numbering slugs that collide.
func filePaths(names []string, opts BulkExportOpts) map[string]string {
	paths := make(map[string]string, len(names))
	seen := make(map[string]int, len(names))
	for _, name := range names {
		slug := formatter.Slug(name)
		seen[slug]++
		if n := seen[slug]; n > 1 {
			slug = fmt.Sprintf("%s-%d", slug, n)
		}
		paths[name] = filepath.Join(opts.OutputDir, slug+"."+opts.Format.Extension())
	}
	return paths
}

func writeManifest(result *BulkExportResult, path string) error {
	m := manifest{
		Format:     result.Format,
		ExportedAt: time.Now().UTC(),
		Total:      result.TotalPlaylists,
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Playlists:  make([]manifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := manifestEntry{Playlist: r.Playlist, Tracks: r.Tracks}
		if r.Success {
			entry.File = filepath.Base(r.File)
		} else if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
