package backup

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/todobot/internal/filex"
)

// DirUploader writes snapshots below a local directory, keeping the key's
// path layout.
type DirUploader struct {
	root string
}

func NewDirUploader(dir string) (*DirUploader, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirUploader{root: root}, nil
}

func (u *DirUploader) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(u.root, filepath.FromSlash(key)), body, 0o600)
}
