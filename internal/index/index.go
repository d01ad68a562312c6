// Package index builds, lists and loads the per-document embedding indexes
// kept under the index root directory.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rfpassist/internal/domain"
	"rfpassist/internal/embedding"
	"rfpassist/internal/logger"
	"rfpassist/internal/retry"
	"rfpassist/internal/vectorstore"
	"rfpassist/internal/vectorstore/memory"
	"rfpassist/internal/vectorstore/sqlite"
)

// MetadataFile sits next to index.db in every index directory.
const MetadataFile = "metadata.json"

const stagingPrefix = ".staging-"

// Metadata describes one processed document.
type Metadata struct {
	DocName string `json:"doc_name"`
	Folder  string `json:"folder"`
	Preview string `json:"preview,omitempty"`
}

// BuildOption adjusts the metadata written with a new index.
type BuildOption func(*Metadata)

// WithPreview stores a short text preview of the document.
func WithPreview(preview string) BuildOption {
	return func(m *Metadata) { m.Preview = preview }
}

// NewFolderID derives a unique folder id from a display name.
func NewFolderID(name string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ReplaceAll(name, " ", "_") + "_" + hex[:6]
}

// Builder embeds chunks and persists them as a new index.
type Builder struct {
	dir    string
	space  embedding.Space
	policy retry.Policy
	log    *logrus.Entry
}

// NewBuilder creates a builder writing below dir.
func NewBuilder(dir string, space embedding.Space, policy retry.Policy, log *logrus.Entry) *Builder {
	b := &Builder{dir: dir, space: space, log: logger.OrDiscard(log)}
	if policy.Classify == nil {
		policy.Classify = failOnCancel
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			b.log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Warn("index build failed, retrying")
		}
	}
	b.policy = policy
	return b
}

// Build creates the index for chunks under a fresh folder id. Each attempt
// writes into a hidden staging directory that is renamed into place only
// once the index and its metadata are complete.
func (b *Builder) Build(ctx context.Context, chunks []string, displayName string, opts ...BuildOption) (Metadata, error) {
	if len(chunks) == 0 {
		return Metadata{}, fmt.Errorf("%w: no chunks to index", domain.ErrPersistenceFailure)
	}
	meta := Metadata{DocName: displayName, Folder: NewFolderID(displayName)}
	for _, opt := range opts {
		opt(&meta)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	staging := filepath.Join(b.dir, stagingPrefix+meta.Folder)
	log := b.log.WithField("folder_id", meta.Folder)

	err := b.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		_ = os.RemoveAll(staging)
		if err := b.write(ctx, staging, chunks, meta); err != nil {
			_ = os.RemoveAll(staging)
			return err
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("index build failed")
		return Metadata{}, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	if err := os.Rename(staging, filepath.Join(b.dir, meta.Folder)); err != nil {
		_ = os.RemoveAll(staging)
		return Metadata{}, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	log.WithField("chunks", len(chunks)).Info("index built")
	return meta, nil
}

func (b *Builder) write(ctx context.Context, dir string, chunks []string, meta Metadata) error {
	emb, state, err := b.space.ForCorpus(chunks)
	if err != nil {
		return err
	}
	vectors, err := emb.Embed(ctx, chunks)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	snap := vectorstore.Snapshot{
		Embedder: b.space.Name(),
		State:    state,
		Chunks:   make([]domain.Chunk, len(chunks)),
		Vectors:  vectors,
	}
	for i, c := range chunks {
		snap.Chunks[i] = domain.Chunk{Index: i, Text: c}
	}
	if err := sqlite.Write(ctx, dir, snap); err != nil {
		return err
	}
	return writeMetadata(dir, meta)
}

func writeMetadata(dir string, meta Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MetadataFile), data, 0o644)
}

func readMetadata(dir string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode %s: %w", MetadataFile, err)
	}
	return meta, nil
}

func failOnCancel(err error) retry.Decision {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.FailFast
	}
	return retry.Retry
}

// Loaded is an index ready for search.
type Loaded struct {
	Metadata
	Embedder embedding.Embedder
	Storage  *memory.Storage
}

// Store reads indexes below the index root.
type Store struct {
	dir   string
	space embedding.Space
	log   *logrus.Entry
}

// NewStore creates a store over dir. Loaded indexes must have been built in space.
func NewStore(dir string, space embedding.Space, log *logrus.Entry) *Store {
	return &Store{dir: dir, space: space, log: logger.OrDiscard(log)}
}

// Dir returns the index root.
func (s *Store) Dir() string { return s.dir }

// List returns every processed document, sorted by name then folder id.
// Staging directories and folders without metadata are skipped.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Metadata
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		meta, err := readMetadata(filepath.Join(s.dir, e.Name()))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.WithError(err).WithField("folder_id", e.Name()).Warn("skipping unreadable index")
			}
			continue
		}
		if meta.Folder == "" {
			meta.Folder = e.Name()
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocName != out[j].DocName {
			return out[i].DocName < out[j].DocName
		}
		return out[i].Folder < out[j].Folder
	})
	return out, nil
}

// Load reads the index stored for folder.
func (s *Store) Load(ctx context.Context, folder string) (*Loaded, error) {
	if !validFolder(folder) {
		return nil, fmt.Errorf("%w: %q", domain.ErrIndexNotFound, folder)
	}
	dir := filepath.Join(s.dir, folder)
	meta, err := readMetadata(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", domain.ErrIndexNotFound, folder)
		}
		return nil, err
	}
	snap, err := sqlite.Read(ctx, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", domain.ErrIndexNotFound, folder)
		}
		return nil, fmt.Errorf("read index %q: %w", folder, err)
	}
	if snap.Embedder != s.space.Name() {
		return nil, fmt.Errorf("%w: index %q built with %q, configured %q",
			domain.ErrEmbedderMismatch, folder, snap.Embedder, s.space.Name())
	}
	emb, err := s.space.ForIndex(snap.State)
	if err != nil {
		return nil, fmt.Errorf("read index %q: %w", folder, err)
	}
	storage, err := memory.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("read index %q: %w", folder, err)
	}
	if meta.Folder == "" {
		meta.Folder = folder
	}
	return &Loaded{Metadata: meta, Embedder: emb, Storage: storage}, nil
}

func validFolder(folder string) bool {
	return folder != "" &&
		!strings.HasPrefix(folder, ".") &&
		!strings.ContainsAny(folder, `/\`) &&
		filepath.Base(folder) == folder
}
