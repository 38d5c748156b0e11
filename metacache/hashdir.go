package metacache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vfs-framework/vfs/vfspath"
)

// hashDir returns the three-level cache-root path for logical path p,
// using the same literal 3+3+10 hex split as the block cache so both
// caches share one on-disk layout convention.
func hashDir(logicalPath string) vfspath.Path {
	sum := sha256.Sum256([]byte(logicalPath))
	h := hex.EncodeToString(sum[:])[:16]
	return vfspath.New("/" + h[0:3] + "/" + h[3:6] + "/" + h[6:16])
}

func metaPath(logicalPath string) vfspath.Path {
	return hashDir(logicalPath).Join("meta.json")
}
