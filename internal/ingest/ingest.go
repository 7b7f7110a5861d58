// Package ingest turns raw uploads into a flat, filtered list of report
// files. Zip archives are expanded one level; OS junk files and unknown
// extensions are dropped.
package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// Kind is the media family of an accepted report file.
type Kind string

const (
	KindDocx  Kind = "docx"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// Upload is one raw uploaded entry: name plus bytes.
type Upload struct {
	Name string
	Data []byte
}

// ReportFile is a single accepted report, real or extracted from a zip.
// Zip entries carry only their base name; archive directory structure is
// discarded.
type ReportFile struct {
	Name string
	Data []byte
	Kind Kind
}

// Counts tallies accepted files per kind plus dropped-by-extension entries.
// Junk files (OS metadata, dotfiles) are silently skipped and not counted.
type Counts struct {
	Docx    int
	PDF     int
	Image   int
	Ignored int
}

func (c Counts) Accepted() int { return c.Docx + c.PDF + c.Image }

var junkNames = map[string]bool{
	".ds_store":   true,
	"desktop.ini": true,
	"thumbs.db":   true,
	"__macosx":    true,
}

var imageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
}

// Normalize filters and flattens uploads into report files. Order is
// deterministic: uploads in input order, zip entries in archive order.
// A corrupt archive contributes an error but never aborts the batch.
func Normalize(uploads []Upload) ([]ReportFile, Counts, []error) {
	var files []ReportFile
	var counts Counts
	var errs []error

	for _, up := range uploads {
		lower := strings.ToLower(up.Name)
		if isJunkName(lower) {
			continue
		}
		if strings.HasSuffix(lower, ".zip") {
			inner, err := expandArchive(up, &counts)
			if err != nil {
				errs = append(errs, fmt.Errorf("unzip %s: %w", up.Name, err))
				continue
			}
			files = append(files, inner...)
			continue
		}
		kind, ok := kindForExt(ext(lower))
		if !ok {
			counts.Ignored++
			continue
		}
		counts.add(kind)
		files = append(files, ReportFile{Name: up.Name, Data: up.Data, Kind: kind})
	}
	return files, counts, errs
}

func expandArchive(up Upload, counts *Counts) ([]ReportFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(up.Data), int64(len(up.Data)))
	if err != nil {
		return nil, err
	}
	// Tally locally and merge only on success: a corrupt entry discards
	// the archive's files, so its counts must not leak into the batch.
	var files []ReportFile
	var local Counts
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if isJunkEntry(f.Name) {
			continue
		}
		kind, ok := kindForExt(ext(strings.ToLower(f.Name)))
		if !ok {
			local.Ignored++
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		local.add(kind)
		files = append(files, ReportFile{Name: path.Base(f.Name), Data: data, Kind: kind})
	}
	counts.merge(local)
	return files, nil
}

func (c *Counts) merge(o Counts) {
	c.Docx += o.Docx
	c.PDF += o.PDF
	c.Image += o.Image
	c.Ignored += o.Ignored
}

func (c *Counts) add(k Kind) {
	switch k {
	case KindDocx:
		c.Docx++
	case KindPDF:
		c.PDF++
	case KindImage:
		c.Image++
	}
}

func isJunkName(lower string) bool {
	return junkNames[lower] || strings.HasPrefix(lower, ".") || strings.HasPrefix(lower, "._")
}

// isJunkEntry checks a zip entry path: any junk path component, hidden
// files, and AppleDouble resource forks are skipped.
func isJunkEntry(name string) bool {
	lower := strings.ToLower(name)
	for junk := range junkNames {
		if strings.Contains(lower, junk) {
			return true
		}
	}
	base := path.Base(lower)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "._")
}

func ext(lower string) string {
	i := strings.LastIndexByte(lower, '.')
	if i < 0 {
		return ""
	}
	return lower[i+1:]
}

func kindForExt(e string) (Kind, bool) {
	switch {
	case e == "docx":
		return KindDocx, true
	case e == "pdf":
		return KindPDF, true
	case imageExts[e]:
		return KindImage, true
	}
	return "", false
}
