package explorer

import (
	"context"
	"fmt"
	"sync"

	"github.com/spacedriveapp/spacedrive-sub003/internal/metrics"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/pathcache"
)

// Address is the resolved addressable form of an ExplorerItem. At most one
// of FilePath and EphemeralPath is set; ObjectID is set for Object items
// regardless (tag assignment addresses objects directly).
type Address struct {
	FilePath      *models.FilePath
	EphemeralPath string
	ObjectID      int32 // 0 = none
}

// HasFilesystem reports whether the address points at something on disk.
func (a Address) HasFilesystem() bool {
	return a.FilePath != nil || a.EphemeralPath != ""
}

// Resolve derives an item's address. The second return is false when the
// item has no addressable form at all.
//
// Object items resolve to their first associated file path; an Object with
// no paths has no filesystem address and is tag-assignable only.
func Resolve(it models.ExplorerItem) (Address, bool) {
	switch it.Kind {
	case models.KindPath:
		fp := *it.FilePath
		return Address{FilePath: &fp}, true
	case models.KindObject:
		addr := Address{ObjectID: it.Object.ID}
		if len(it.Object.FilePaths) > 0 {
			fp := it.Object.FilePaths[0]
			addr.FilePath = &fp
		}
		return addr, true
	case models.KindNonIndexedPath:
		return Address{EphemeralPath: it.NonIndexed.Path}, true
	case models.KindLocation:
		return Address{EphemeralPath: it.Location.Path}, true
	default:
		return Address{}, false
	}
}

// ResolveMany resolves a batch, dropping items with no resolvable address
// instead of failing.
func ResolveMany(items []models.ExplorerItem) []Address {
	out := make([]Address, 0, len(items))
	for _, it := range items {
		if addr, ok := Resolve(it); ok {
			out = append(out, addr)
		}
	}
	return out
}

// PathQuerier is the slice of the backend client the resolver needs for
// lazy absolute-path lookups.
type PathQuerier interface {
	GetPath(ctx context.Context, filePathID int32) (string, error)
}

// Resolver turns addresses into absolute filesystem paths, fetching
// indexed paths lazily from the backend (files.getPath) through a cache.
type Resolver struct {
	backend       PathQuerier
	cache         *pathcache.Cache
	maxConcurrent int
}

// NewResolver creates a resolver. maxConcurrent bounds parallel getPath
// queries; values below one are treated as one.
func NewResolver(backend PathQuerier, cache *pathcache.Cache, maxConcurrent int) *Resolver {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Resolver{backend: backend, cache: cache, maxConcurrent: maxConcurrent}
}

// AbsolutePath returns the absolute filesystem path of an address.
func (r *Resolver) AbsolutePath(ctx context.Context, addr Address) (string, error) {
	if addr.EphemeralPath != "" {
		return addr.EphemeralPath, nil
	}
	if addr.FilePath == nil {
		return "", fmt.Errorf("address has no filesystem form")
	}
	return r.AbsolutePathForID(ctx, addr.FilePath.ID)
}

// AbsolutePathForID resolves a file-path id via the cache or the backend.
func (r *Resolver) AbsolutePathForID(ctx context.Context, id int32) (string, error) {
	if r.cache != nil {
		if p, ok := r.cache.Get(id); ok {
			metrics.RecordPathResolution("cache_hit")
			return p, nil
		}
	}
	p, err := r.backend.GetPath(ctx, id)
	if err != nil {
		metrics.RecordPathResolution("failed")
		return "", err
	}
	metrics.RecordPathResolution("fetched")
	if r.cache != nil {
		r.cache.Put(id, p)
	}
	return p, nil
}

// AbsolutePaths resolves a batch of addresses concurrently (bounded),
// preserving input order. One failing lookup fails the batch: a partial
// source list would silently transfer fewer files than the user selected.
func (r *Resolver) AbsolutePaths(ctx context.Context, addrs []Address) ([]string, error) {
	out := make([]string, len(addrs))
	errs := make([]error, len(addrs))

	sem := make(chan struct{}, r.maxConcurrent)
	var wg sync.WaitGroup

	for i, addr := range addrs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, addr Address) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i], errs[i] = r.AbsolutePath(ctx, addr)
		}(i, addr)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("resolve source %d: %w", i, err)
		}
	}
	return out, nil
}

// InvalidatePath drops a cached path, e.g. after a cut moved the file.
func (r *Resolver) InvalidatePath(id int32) {
	if r.cache != nil {
		r.cache.Invalidate(id)
	}
}
