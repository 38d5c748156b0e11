package blockcache

import "github.com/vfs-framework/vfs/vfs"

func readAll() vfs.ReadOptions { return vfs.ReadOptions{} }

func overwriteOpts() vfs.WriteOptions { return vfs.WriteOptions{Mode: vfs.ModeOverwrite} }

func moveOverwriteOpts() vfs.MoveOptions { return vfs.MoveOptions{Overwrite: true} }

func rangeOpts(start, end uint64) vfs.ReadOptions {
	return vfs.ReadOptions{Start: &start, End: &end}
}
