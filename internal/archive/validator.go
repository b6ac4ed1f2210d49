package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"

	"l2wp/internal/apperr"
)

// DefaultMaxBytes is the default upload cap (50 MB).
const DefaultMaxBytes int64 = 50 << 20

var (
	DefaultRequired = []string{"src/", "public/", "package.json"}

	DefaultAllowedExts = []string{
		"js", "jsx", "ts", "tsx",
		"json", "css", "scss", "sass",
		"html", "svg", "png", "jpg", "jpeg", "gif", "webp",
		"md", "txt", "yml", "yaml",
	}

	DefaultDangerous = []string{".php", ".exe", ".sh", ".bat", ".cmd", "../"}

	zipMIMEs = []string{"application/zip", "application/x-zip", "application/x-zip-compressed"}
)

// Validator checks uploads before and after opening them. Errors are
// terminal; warnings never block.
type Validator struct {
	MaxBytes    int64
	Required    []string
	AllowedExts []string
	Dangerous   []string
}

func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{
		MaxBytes:    maxBytes,
		Required:    DefaultRequired,
		AllowedExts: DefaultAllowedExts,
		Dangerous:   DefaultDangerous,
	}
}

// Report collects non-blocking findings.
type Report struct {
	Entries  int      `json:"entries"`
	Warnings []string `json:"warnings"`
}

// Validate runs every check against an archive on disk. name is the
// original upload name, used for the extension check.
func (v *Validator) Validate(name, archivePath string) (Report, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return Report{}, apperr.FileNotFound("validate", archivePath)
	}
	head, err := readHead(archivePath, 512)
	if err != nil {
		return Report{}, apperr.Extraction("validate", err)
	}
	if err := v.ValidateUpload(name, info.Size(), head); err != nil {
		return Report{}, err
	}
	return v.ValidateStructure(archivePath)
}

// ValidateUpload checks size, extension and sniffed MIME type.
func (v *Validator) ValidateUpload(name string, size int64, head []byte) error {
	const op = "validate upload"
	if size > v.MaxBytes {
		return apperr.Validation(op, fmt.Sprintf("File size exceeds maximum allowed size of %s", formatBytes(v.MaxBytes)), "size")
	}
	if !strings.EqualFold(path.Ext(name), ".zip") {
		return apperr.Validation(op, "File must be a ZIP archive", "extension")
	}
	mime := http.DetectContentType(head)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !slices.Contains(zipMIMEs, strings.TrimSpace(mime)) {
		return apperr.Validation(op, "File must be a ZIP archive", "mime")
	}
	return nil
}

// ValidateStructure requires every Required marker to appear in some entry
// name and collects extension and security warnings.
func (v *Validator) ValidateStructure(archivePath string) (Report, error) {
	const op = "validate structure"
	zr, err := openZip(archivePath)
	if err != nil {
		return Report{}, apperr.Validation(op, "Could not open ZIP file", "archive")
	}
	defer zr.Close()

	report := Report{Entries: len(zr.File)}
	found := make(map[string]bool, len(v.Required))
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		for _, req := range v.Required {
			if strings.Contains(name, req) {
				found[req] = true
			}
		}
		if ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), "."); ext != "" && !f.FileInfo().IsDir() && !slices.Contains(v.AllowedExts, ext) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Unexpected file extension: %s", ext))
		}
	}
	var missing []string
	for _, req := range v.Required {
		if !found[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return report, apperr.Validation(op, "Missing required files/directories: "+strings.Join(missing, ", "), missing...)
	}
	report.Warnings = append(report.Warnings, v.securityWarnings(zr.File)...)
	return report, nil
}

func (v *Validator) securityWarnings(files []*zip.File) []string {
	var out []string
	for _, f := range files {
		for _, pattern := range v.Dangerous {
			if strings.Contains(f.Name, pattern) {
				out = append(out, fmt.Sprintf("Potentially dangerous file detected: %s", f.Name))
			}
		}
	}
	return out
}

func readHead(p string, n int) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	m, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:m], nil
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
