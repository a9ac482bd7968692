package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"telegram-ai-relay/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.MemberRepository = (*FileMemberRepo)(nil)

// FileMemberRepo keeps the member list as one JSON array in a text file.
// Save writes a temp file next to the target and renames it into place, so
// the file always holds a complete, valid array.
type FileMemberRepo struct {
	mu   sync.Mutex
	path string
}

func NewFileMemberRepo(path string) (*FileMemberRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("members file path is empty")
	}
	return &FileMemberRepo{path: path}, nil
}

func (r *FileMemberRepo) Path() string { return r.path }

// Load returns an empty list when the file does not exist or is blank.
func (r *FileMemberRepo) Load(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *FileMemberRepo) Save(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return writeFileAtomic(r.path, b, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
