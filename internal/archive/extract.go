package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"l2wp/internal/apperr"
	"l2wp/internal/safeio"
)

// DefaultMaxExtractBytes caps the uncompressed size of one archive.
const DefaultMaxExtractBytes int64 = 512 << 20

var errTooLarge = errors.New("uncompressed size exceeds limit")

// Extract unpacks the zip at src into dest. Entries that would land outside
// dest are skipped and reported as warnings.
func Extract(src string, dest *safeio.SafeFS, maxBytes int64) ([]string, error) {
	const op = "extract"
	if maxBytes <= 0 {
		maxBytes = DefaultMaxExtractBytes
	}
	zr, err := openZip(src)
	if err != nil {
		return nil, apperr.Extraction(op, err)
	}
	defer zr.Close()

	var warnings []string
	var total int64
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if !safeEntryName(name) {
			warnings = append(warnings, fmt.Sprintf("Skipped unsafe entry: %s", f.Name))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := dest.SafeMkdirAll(name); err != nil {
				warnings = append(warnings, fmt.Sprintf("Skipped unsafe entry: %s", f.Name))
			}
			continue
		}
		if !f.Mode().IsRegular() {
			// Symlinks and devices are never materialised.
			warnings = append(warnings, fmt.Sprintf("Skipped non-regular entry: %s", f.Name))
			continue
		}
		n, err := extractFile(f, name, dest, maxBytes-total)
		total += n
		if err != nil {
			if errors.Is(err, safeio.ErrTraversal) {
				warnings = append(warnings, fmt.Sprintf("Skipped unsafe entry: %s", f.Name))
				continue
			}
			return warnings, apperr.Extraction(op, fmt.Errorf("%s: %w", f.Name, err))
		}
	}
	log.Printf("archive: extracted %d entries into %s", len(zr.File), dest.Root())
	return warnings, nil
}

func extractFile(f *zip.File, name string, dest *safeio.SafeFS, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	lr := &io.LimitedReader{R: rc, N: budget + 1}
	n, err := dest.SafeCreate(name, lr, 0o644)
	if err != nil {
		return n, err
	}
	if n > budget {
		return n, errTooLarge
	}
	return n, nil
}

func safeEntryName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, ":") {
		return false
	}
	clean := path.Clean(name)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// openZip tolerates zip.ErrInsecurePath; unsafe names are filtered per entry.
func openZip(src string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(src)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, err
	}
	return zr, nil
}
