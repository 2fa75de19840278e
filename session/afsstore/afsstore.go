// Package afsstore provides a durable core.StateStore on any storage URL
// supported by github.com/viant/afs (file://, mem://, s3://, gs://, ...).
// Each thread is stored as one JSON document named <thread_id>.json.
package afsstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/travelmesh/core"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var _ core.StateStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	// FS overrides the storage service; defaults to afs.New().
	FS afs.Service
}

// Store persists thread snapshots below a base URL.
type Store struct {
	fs      afs.Service
	baseURL string
}

// New creates a Store rooted at baseURL.
func New(baseURL string, optFns ...func(o *Options)) *Store {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FS == nil {
		opts.FS = afs.New()
	}

	return &Store{fs: opts.FS, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) location(threadID string) (string, error) {
	if threadID == "" || strings.ContainsAny(threadID, `/\`) || strings.Contains(threadID, "..") {
		return "", fmt.Errorf("invalid thread id %q", threadID)
	}
	return url.Join(s.baseURL, threadID+".json"), nil
}

// Load returns the stored state or core.ErrThreadNotFound.
func (s *Store) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	loc, err := s.location(threadID)
	if err != nil {
		return nil, err
	}

	ok, err := s.fs.Exists(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", loc, err)
	}
	if !ok {
		return nil, core.ErrThreadNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", loc, err)
	}

	var st core.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", loc, err)
	}

	return &st, nil
}

// Save uploads the snapshot, replacing any previous one.
func (s *Store) Save(ctx context.Context, state *core.ConversationState) error {
	loc, err := s.location(state.ThreadID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", state.ThreadID, err)
	}

	if err := s.fs.Upload(ctx, loc, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", loc, err)
	}

	return nil
}

// Delete removes the thread. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	loc, err := s.location(threadID)
	if err != nil {
		return err
	}

	ok, err := s.fs.Exists(ctx, loc)
	if err != nil {
		return fmt.Errorf("stat %s: %w", loc, err)
	}
	if !ok {
		return nil
	}

	if err := s.fs.Delete(ctx, loc); err != nil {
		return fmt.Errorf("delete %s: %w", loc, err)
	}

	return nil
}
