package local_test

import (
	"testing"

	"github.com/vfs-framework/vfs/backend/local"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS { return local.New(t.TempDir()) })
}
