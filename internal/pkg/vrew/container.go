package vrew

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// mediaEntry is a file copied into the container's media/ directory.
// f is opened when the media is registered, so the copy reads the file that was
// checked even if src is removed or replaced before the archive is written.
type mediaEntry struct {
	name string // <mediaId><ext>
	src  string
	f    *os.File
}

// writeContainer writes the archive to a temporary file next to path and renames it into place,
// so a failed write never leaves a truncated container at path.
func writeContainer(path string, project []byte, extras []entry, media []mediaEntry) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}
	tmpPath := tmp.Name()

	defer func() {
		if err == nil {
			return
		}
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			if gerr, ok := err.(*GenerationError); ok {
				gerr.Partial = true
				gerr.OutputPath = tmpPath
			}
		}
	}()

	zw := zip.NewWriter(tmp)
	if err := addEntry(zw, projectEntryName, project); err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}
	for _, e := range extras {
		if err := addEntry(zw, e.name, e.data); err != nil {
			return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
		}
	}
	for _, m := range media {
		if err := addFile(zw, mediaEntryPrefix+m.name, m); err != nil {
			return &GenerationError{Stage: StageMedia, OutputPath: path, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}
	if err := tmp.Close(); err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &GenerationError{Stage: StageWrite, OutputPath: path, Err: fmt.Errorf("%w: %v", ErrOutputUnwritable, err)}
	}
	return nil
}

func addEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addFile(zw *zip.Writer, name string, m mediaEntry) error {
	var r io.Reader = m.f
	if m.f == nil {
		f, err := os.Open(m.src)
		if err != nil {
			return fmt.Errorf("open media %s: %w", m.src, err)
		}
		defer f.Close()
		r = f
	} else if _, err := m.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind media %s: %w", m.src, err)
	}

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copy media %s: %w", m.src, err)
	}
	return nil
}

// Container is a project file read back from disk.
type Container struct {
	Document Document
	// Media maps media/ entry names (without the prefix) to their uncompressed size.
	Media map[string]int64
	// Entries lists every archive entry name, sorted.
	Entries []string
}

// OpenContainer reads a generated project file.
func OpenContainer(path string) (*Container, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer zr.Close()

	c := &Container{Media: make(map[string]int64)}
	var project []byte
	for _, f := range zr.File {
		c.Entries = append(c.Entries, f.Name)
		switch {
		case f.Name == projectEntryName:
			if project, err = readZipFile(f); err != nil {
				return nil, fmt.Errorf("read %s: %w", projectEntryName, err)
			}
		case strings.HasPrefix(f.Name, mediaEntryPrefix) && !strings.HasSuffix(f.Name, "/"):
			c.Media[strings.TrimPrefix(f.Name, mediaEntryPrefix)] = int64(f.UncompressedSize64)
		}
	}
	sort.Strings(c.Entries)

	if project == nil {
		return nil, fmt.Errorf("container has no %s", projectEntryName)
	}
	if err := json.Unmarshal(project, &c.Document); err != nil {
		return nil, fmt.Errorf("decode %s: %w", projectEntryName, err)
	}
	return c, nil
}

// Clips returns every clip of every transcript scene in order.
func (d *Document) Clips() []Clip {
	var out []Clip
	for _, s := range d.Transcript.Scenes {
		out = append(out, s.Clips...)
	}
	return out
}
