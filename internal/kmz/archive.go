package kmz

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sourceplane/wpmlkit/internal/model"
)

// Entry describes one archive member
type Entry struct {
	Path           string
	Method         uint16
	Size           uint64
	CompressedSize uint64
	Dir            bool
}

func open(archive []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a KMZ archive: %v", model.ErrMalformedMission, err)
	}
	seen := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate archive entry %s", model.ErrMalformedMission, f.Name)
		}
		seen[f.Name] = true
	}
	return zr, nil
}

func find(zr *zip.Reader, path string) *zip.File {
	for _, f := range zr.File {
		if f.Name == path {
			return f
		}
	}
	return nil
}

// List returns the archive members in stored order.
func List(archive []byte) ([]Entry, error) {
	zr, err := open(archive)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, Entry{
			Path:           f.Name,
			Method:         f.Method,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			Dir:            f.FileInfo().IsDir(),
		})
	}
	return entries, nil
}

// Locate resolves the mission entry path. The preferred path wins when
// present; otherwise the first entry ending in "/<preferred>" is used, which
// covers archives that nest the mission folder one or more levels deep.
func Locate(archive []byte, preferred string) (string, error) {
	zr, err := open(archive)
	if err != nil {
		return "", err
	}
	if find(zr, preferred) != nil {
		return preferred, nil
	}
	suffix := "/" + strings.TrimPrefix(preferred, "/")
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, suffix) && !f.FileInfo().IsDir() {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", model.ErrEntryNotFound, preferred)
}

// Extract returns the uncompressed bytes of the named entry.
func Extract(archive []byte, path string) ([]byte, error) {
	zr, err := open(archive)
	if err != nil {
		return nil, err
	}
	f := find(zr, path)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEntryNotFound, path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrMalformedMission, path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrMalformedMission, path, err)
	}
	return data, nil
}

// Repack rebuilds the archive with the named entry's content replaced.
// Every other entry is copied raw (header and compressed bytes untouched)
// in the original order; the replaced entry keeps its name, position,
// compression method, timestamps and attributes.
func Repack(archive []byte, path string, data []byte) ([]byte, error) {
	zr, err := open(archive)
	if err != nil {
		return nil, err
	}
	if find(zr, path) == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEntryNotFound, path)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name != path {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("failed to copy entry %s: %w", f.Name, err)
			}
			continue
		}

		hdr := f.FileHeader
		// A zero Modified keeps the stored DOS time and Extra as they are;
		// otherwise the writer appends another extended-timestamp record.
		hdr.Modified = time.Time{}
		hdr.CRC32 = 0
		hdr.CompressedSize = 0
		hdr.UncompressedSize = 0
		hdr.CompressedSize64 = 0
		hdr.UncompressedSize64 = 0
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return nil, fmt.Errorf("failed to write entry header %s: %w", path, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", path, err)
		}
	}
	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return nil, fmt.Errorf("failed to set archive comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
