// Package sync uploads a rendered catalog tree to remote object
// storage. Only files missing remotely are uploaded: presence is a
// sorted-key lookup over relative paths, not a content comparison, so a
// changed file with an unchanged name is never re-uploaded. Remote-only
// objects are never deleted.
package sync

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/prodkit/composer/pkg/errors"
)

// Object describes one remote object.
type Object struct {
	Key  string
	Size int64
}

// BucketClient is the remote storage boundary.
type BucketClient interface {
	// List returns every object in the bucket.
	List(ctx context.Context) ([]Object, error)

	// Upload stores r under key.
	Upload(ctx context.Context, key string, r io.Reader) error
}

// Result summarizes one sync run.
type Result struct {
	Uploaded []string
	Existing int
}

// Syncer diffs a local directory against a bucket and uploads the
// difference.
type Syncer struct {
	Client BucketClient
	Logger *log.Logger
}

// NewSyncer returns a syncer over the given client.
func NewSyncer(client BucketClient, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{Client: client, Logger: logger}
}

// Sync uploads every file under root whose relative path has no remote
// object. Keys use forward slashes regardless of platform.
func (s *Syncer) Sync(ctx context.Context, root string) (*Result, error) {
	remote, err := s.Client.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSync, err, "listing bucket")
	}

	keys := make([]string, len(remote))
	for i, obj := range remote {
		keys[i] = obj.Key
	}
	sort.Strings(keys)

	result := &Result{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if idx := sort.SearchStrings(keys, key); idx < len(keys) && keys[idx] == key {
			result.Existing++
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		s.Logger.Debug("uploading", "key", key)
		if err := s.Client.Upload(ctx, key, f); err != nil {
			return errors.Wrap(errors.ErrCodeSync, err, "uploading %s", key)
		}
		result.Uploaded = append(result.Uploaded, key)
		return nil
	})
	if err != nil {
		return result, err
	}

	s.Logger.Info("sync complete", "uploaded", len(result.Uploaded), "existing", result.Existing)
	return result, nil
}
