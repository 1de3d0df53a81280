package dff

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Grouper partitions a list of files into groups of identical contents.
//
// Every file is sized once. Files whose size occurs only once are dropped
// before any content is read. The remaining candidates are consumed in
// order: the first one becomes a representative, every other candidate of
// the same size is compared against it exactly once, and the matches leave
// the candidate set together with the representative. Content equality is
// assumed to be transitive, so members are never compared with each other.
type Grouper struct {
	sizer    Sizer
	comparer Comparer
	workers  int

	comparisons atomic.Int64
	stats       Stats
}

func NewGrouper(sizer Sizer, comparer Comparer, workers int) *Grouper {
	if workers < 1 {
		workers = 1
	}
	return &Grouper{
		sizer:    sizer,
		comparer: comparer,
		workers:  workers,
	}
}

// Stats returns the counters of the last Group call.
func (g *Grouper) Stats() Stats {
	return g.stats
}

// Group returns the duplicate groups in the order their representatives
// were visited. Any lookup or comparison failure aborts the run and no
// groups are returned.
func (g *Grouper) Group(files []string) ([]Group, error) {
	g.comparisons.Store(0)
	g.stats = Stats{Files: len(files)}

	candidates, err := g.candidates(files)
	if err != nil {
		return nil, err
	}
	g.stats.Candidates = len(candidates)
	log.Debugf("%d of %d files share their size with another file", len(candidates), len(files))

	buckets := classifyCandidatesBySize(candidates)
	g.stats.Buckets = len(buckets)

	var found []indexedGroup
	for _, bucket := range buckets {
		groups, err := g.groupBucket(bucket)
		if err != nil {
			return nil, err
		}
		found = append(found, groups...)
	}

	// A representative is always the first remaining candidate of its
	// bucket, so ordering by its position restores visiting order.
	sort.Slice(found, func(i, j int) bool {
		return found[i].index < found[j].index
	})
	groups := make([]Group, len(found))
	for i := range found {
		groups[i] = found[i].group
	}

	g.stats.Comparisons = g.comparisons.Load()
	g.stats.Groups = len(groups)
	return groups, nil
}

// indexedGroup is a group with the candidate position of its representative.
type indexedGroup struct {
	index int
	group Group
}

// candidates sizes every file and keeps the ones whose size is shared.
func (g *Grouper) candidates(files []string) ([]candidate, error) {
	sized := make([]candidate, 0, len(files))
	sizeCount := make(map[int64]int)
	for _, path := range files {
		size, err := g.sizer.Size(path)
		if err != nil {
			return nil, newFileError("size", path, err)
		}
		sized = append(sized, candidate{path: path, size: size})
		sizeCount[size]++
	}

	list := make([]candidate, 0, len(sized))
	for _, c := range sized {
		if sizeCount[c.size] > 1 {
			c.index = len(list)
			list = append(list, c)
		}
	}
	return list, nil
}

// classifyCandidatesBySize splits candidates into size buckets, keeping
// candidate order inside each bucket and ordering buckets by first member.
func classifyCandidatesBySize(candidates []candidate) [][]candidate {
	position := make(map[int64]int)
	var buckets [][]candidate
	for _, c := range candidates {
		i, ok := position[c.size]
		if !ok {
			i = len(buckets)
			position[c.size] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], c)
	}
	return buckets
}

// groupBucket consumes one size bucket: the first remaining candidate is
// the representative and the rest are partitioned against it.
func (g *Grouper) groupBucket(bucket []candidate) ([]indexedGroup, error) {
	var groups []indexedGroup
	for len(bucket) > 0 {
		rep := bucket[0]
		matches, rest, err := g.partition(rep, bucket[1:])
		if err != nil {
			return nil, err
		}
		bucket = rest

		if len(matches) < 1 {
			continue
		}
		group := Group{
			Files: make([]string, 0, len(matches)+1),
			Size:  rep.size,
		}
		group.Files = append(group.Files, rep.path)
		for _, m := range matches {
			group.Files = append(group.Files, m.path)
		}
		log.WithFields(log.Fields{
			"representative": rep.path,
			"copies":         len(matches),
			"size":           rep.size,
		}).Debug("duplicate group")
		groups = append(groups, indexedGroup{index: rep.index, group: group})
	}
	return groups, nil
}

// partition splits rest into the candidates equal to rep and the others,
// keeping the relative order of both.
func (g *Grouper) partition(rep candidate, rest []candidate) (matches, others []candidate, err error) {
	equal, err := g.compareAll(rep, rest)
	if err != nil {
		return nil, nil, err
	}
	others = make([]candidate, 0, len(rest))
	for i, c := range rest {
		if equal[i] {
			matches = append(matches, c)
			continue
		}
		others = append(others, c)
	}
	return matches, others, nil
}

// compareAll compares rep against every candidate in rest, all of the same
// size. The result is aligned with rest.
func (g *Grouper) compareAll(rep candidate, rest []candidate) ([]bool, error) {
	equal := make([]bool, len(rest))
	if g.workers == 1 {
		for i, c := range rest {
			ok, err := g.compare(rep, c)
			if err != nil {
				return nil, err
			}
			equal[i] = ok
		}
		return equal, nil
	}

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(g.workers)
	for i, c := range rest {
		i, c := i, c // per-iteration copies for the go 1.21 directive
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := g.compare(rep, c)
			if err != nil {
				return err
			}
			equal[i] = ok
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return equal, nil
}

func (g *Grouper) compare(rep, c candidate) (bool, error) {
	g.comparisons.Add(1)
	ok, err := g.comparer.Equal(rep.path, c.path)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			return false, fe
		}
		return false, newFileError("compare", c.path, fmt.Errorf("against `%s`: %w", rep.path, err))
	}
	return ok, nil
}

// newFileError wraps a collaborator failure with the file it concerns,
// unless it already names one.
func newFileError(op, path string, err error) error {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return &FileError{Op: op, Path: path, Err: err}
}
