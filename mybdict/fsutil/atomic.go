// Package fsutil writes output files so readers never observe a partial file.
package fsutil

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// Options tunes WriteAtomic. Zero values use the defaults.
type Options struct {
	PermFile os.FileMode
	PermDir  os.FileMode
	BufSize  int
}

func (o *Options) withDefaults() Options {
	out := Options{PermFile: 0o644, PermDir: 0o755, BufSize: 64 * 1024}
	if o == nil {
		return out
	}
	if o.PermFile != 0 {
		out.PermFile = o.PermFile
	}
	if o.PermDir != 0 {
		out.PermDir = o.PermDir
	}
	if o.BufSize > 0 {
		out.BufSize = o.BufSize
	}
	return out
}

// WriteFile atomically replaces dest with data.
func WriteFile(ctx context.Context, dest string, data []byte, opts *Options) error {
	return WriteAtomic(ctx, dest, bytes.NewReader(data), opts)
}

// WriteAtomic copies r into a temp file next to dest, fsyncs it, and renames
// it over dest. On any failure the temp file is removed and dest is untouched.
func WriteAtomic(ctx context.Context, dest string, r io.Reader, opts *Options) error {
	o := opts.withDefaults()
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, o.PermDir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if err := tmp.Chmod(o.PermFile); err != nil {
		return err
	}

	bw := bufio.NewWriterSize(tmp, o.BufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return err
	}
	committed = true
	_ = syncDir(dir)
	return nil
}

// syncDir best-effort fsyncs the parent directory so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
