package metacache

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// fileStatusJSON mirrors the on-disk FileStatus JSON schema.
type fileStatusJSON struct {
	Path        string  `json:"path"`
	Size        *uint64 `json:"size,omitempty"`
	IsDirectory bool    `json:"isDirectory"`
	MIMEType    *string `json:"mimeType,omitempty"`
}

func toStatusJSON(st vfsstatus.FileStatus) fileStatusJSON {
	return fileStatusJSON{
		Path:        st.Path.String(),
		Size:        st.Size,
		IsDirectory: st.IsDirectory,
		MIMEType:    st.MIMEType,
	}
}

func (j fileStatusJSON) toStatus() vfsstatus.FileStatus {
	return vfsstatus.FileStatus{
		Path:        vfspath.New(j.Path),
		IsDirectory: j.IsDirectory,
		Size:        j.Size,
		MIMEType:    j.MIMEType,
	}
}

// cacheEntry mirrors the on-disk meta.json schema for the metadata
// cache.
type cacheEntry struct {
	Path             string           `json:"path"`
	Stat             fileStatusJSON   `json:"stat"`
	LastUpdated      time.Time        `json:"lastUpdated"`
	Children         []fileStatusJSON `json:"children"`
	IsLargeDirectory bool             `json:"isLargeDirectory"`
	Version          string           `json:"version"`
}

// hasChildren reports whether this entry carries a usable children
// list. An entry written from a listing at or under the large-directory
// threshold marshals Children as a JSON array (possibly "[]" for an
// empty directory); a stat-only entry, or a large-directory entry,
// round-trips Children as JSON null.
func (e *cacheEntry) hasChildren() bool { return e.Children != nil }

// readEntry reads and parses meta.json for logicalPath, returning
// (nil, nil) if it does not exist.
func (c *Cache) readEntry(ctx *vfsctx.Context, logicalPath string) (*cacheEntry, error) {
	exists, err := c.cacheStore.Exists(ctx, metaPath(logicalPath))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	data, err := c.cacheStore.ReadAsBytes(ctx, metaPath(logicalPath), vfs.ReadOptions{})
	if err != nil {
		return nil, err
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "metacache: parse meta.json")
	}
	return &e, nil
}

// writeEntry persists e for logicalPath, writing to a temporary
// sibling path first and moving it into place.
func (c *Cache) writeEntry(ctx *vfsctx.Context, logicalPath string, e *cacheEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "metacache: marshal meta.json")
	}
	tmp := hashDir(logicalPath).Join(".meta.json.tmp")
	if err := c.cacheStore.WriteBytes(ctx, tmp, data, vfs.WriteOptions{Mode: vfs.ModeOverwrite}); err != nil {
		return err
	}
	return c.cacheStore.Move(ctx, tmp, metaPath(logicalPath), vfs.MoveOptions{Overwrite: true})
}
