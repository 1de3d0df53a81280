package dff

import (
	"io"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type DuplicateFileFinder struct {
	config   Config
	fs       afero.Fs
	lister   Lister
	grouper  *Grouper
	renderer *Renderer
}

func NewDuplicateFileFinder(fs afero.Fs, config Config) *DuplicateFileFinder {
	var comparer Comparer = NewByteComparer(fs)
	if config.Digest {
		comparer = NewDigestComparer(fs)
	}

	d := DuplicateFileFinder{
		config:   config,
		fs:       fs,
		lister:   NewFileLister(fs, config.MinFileSize),
		grouper:  NewGrouper(NewFileSizer(fs), comparer, config.Workers),
		renderer: NewRenderer(config.NoColor),
	}
	log.WithFields(log.Fields{
		"root":          config.Root,
		"min_file_size": config.MinFileSize,
		"digest":        config.Digest,
		"workers":       config.Workers,
	}).Info("settings")

	return &d
}

func (d *DuplicateFileFinder) Init(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// Find lists the files below the configured root and groups them.
func (d *DuplicateFileFinder) Find() ([]Group, error) {
	root := d.config.Root
	if _, ok := d.fs.(*afero.OsFs); ok {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	files, err := d.lister.List(root)
	if err != nil {
		return nil, err
	}
	return d.grouper.Group(files)
}

// Start finds the duplicate groups and writes the report to w.
func (d *DuplicateFileFinder) Start(w io.Writer) error {
	started := time.Now()
	groups, err := d.Find()
	if err != nil {
		return err
	}

	stats := d.grouper.Stats()
	log.WithFields(log.Fields{
		"files":       stats.Files,
		"candidates":  stats.Candidates,
		"buckets":     stats.Buckets,
		"comparisons": stats.Comparisons,
		"groups":      stats.Groups,
	}).Info("grouping finished")

	if err := d.renderer.Render(w, Report(groups)); err != nil {
		return err
	}
	log.Infof("runtime: %.2f seconds", time.Since(started).Seconds())
	return nil
}
