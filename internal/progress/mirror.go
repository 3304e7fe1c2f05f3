package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/abhisek/quizcycle/internal/store"
)

// Mirror keeps the newest record per key on a local filesystem, so writes
// that never reached the store survive a restart.
type Mirror struct {
	fs  afero.Fs
	dir string
}

// NewMirror stores files under dir on fsys.
func NewMirror(fsys afero.Fs, dir string) *Mirror {
	return &Mirror{fs: fsys, dir: dir}
}

func (m *Mirror) path(key store.ProgressKey) string {
	return filepath.Join(m.dir,
		url.PathEscape(key.LearnerID),
		url.PathEscape(key.QuizType),
		url.PathEscape(key.Scope)+".json",
	)
}

// Put writes rec, replacing any earlier copy for the same key.
func (m *Mirror) Put(rec *Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal mirror record: %w", err)
	}

	p := m.path(rec.Key())
	if err := m.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}

	tmp := p + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	if err := m.fs.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename mirror: %w", err)
	}
	return nil
}

// Get returns the mirrored record for key, or nil if there is none.
func (m *Mirror) Get(key store.ProgressKey) (*Record, error) {
	data, err := afero.ReadFile(m.fs, m.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	return Unmarshal(data)
}
