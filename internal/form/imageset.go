package form

import (
	"encoding/base64"
	"fmt"

	"github.com/loggier/app-corte/internal/models"
)

// MaxFileSize is the upload limit per image in bytes.
const MaxFileSize = 5_000_000

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// File is a locally selected image that has not been uploaded yet.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Preview is a display reference for one image. Existing URLs are used
// directly; pending files get a data URI derived from their bytes, which
// must be released once no longer displayed.
type Preview struct {
	URL     string
	Derived bool
}

// Release drops the derived buffer. Existing URLs are left untouched.
func (p *Preview) Release() {
	if p.Derived {
		p.URL = ""
	}
}

// ImageSet tracks already-persisted image URLs plus newly selected files and
// keeps their combined count within models.MaxImageURLs.
type ImageSet struct {
	existingURLs []string
	pendingFiles []File
}

// NewImageSet starts a set from the URLs already stored on the vehicle.
func NewImageSet(existingURLs []string) *ImageSet {
	s := &ImageSet{existingURLs: append([]string(nil), existingURLs...)}
	return s
}

// AddFiles merges candidates into the pending list. Candidates already
// pending (same name and size) are skipped, oversized or unsupported files
// are rejected with a field error, and the result is truncated so the
// combined count never exceeds models.MaxImageURLs.
func (s *ImageSet) AddFiles(candidates ...File) *ValidationError {
	var rejected []string
	for _, candidate := range candidates {
		if s.isDuplicate(candidate) {
			continue
		}
		if candidate.Size > MaxFileSize {
			rejected = append(rejected, fmt.Sprintf("%s exceeds the 5MB limit", candidate.Name))
			continue
		}
		if !acceptedImageTypes[candidate.ContentType] {
			rejected = append(rejected, fmt.Sprintf("%s is not a .jpg, .jpeg, .png or .webp image", candidate.Name))
			continue
		}
		if s.Total() >= models.MaxImageURLs {
			break
		}
		s.pendingFiles = append(s.pendingFiles, candidate)
	}
	if len(rejected) > 0 {
		msg := rejected[0]
		if len(rejected) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(rejected)-1)
		}
		return &ValidationError{Fields: map[string]string{"images": msg}}
	}
	return nil
}

func (s *ImageSet) isDuplicate(candidate File) bool {
	for _, f := range s.pendingFiles {
		if f.Name == candidate.Name && f.Size == candidate.Size {
			return true
		}
	}
	return false
}

// RemoveExisting drops a persisted URL from the set.
func (s *ImageSet) RemoveExisting(url string) {
	kept := s.existingURLs[:0]
	for _, u := range s.existingURLs {
		if u != url {
			kept = append(kept, u)
		}
	}
	s.existingURLs = kept
}

// RemovePending drops the pending file at index. Out-of-range indexes are
// ignored.
func (s *ImageSet) RemovePending(index int) {
	if index < 0 || index >= len(s.pendingFiles) {
		return
	}
	s.pendingFiles = append(s.pendingFiles[:index], s.pendingFiles[index+1:]...)
}

// AppendExisting records URLs that were just uploaded as persisted.
func (s *ImageSet) AppendExisting(urls ...string) {
	s.existingURLs = append(s.existingURLs, urls...)
}

// Uploaded moves the pending files over to the persisted side once the
// backend has assigned them the given URLs.
func (s *ImageSet) Uploaded(urls []string) {
	s.existingURLs = append(s.existingURLs, urls...)
	s.pendingFiles = nil
}

// ExistingURLs returns a copy of the persisted URLs in order.
func (s *ImageSet) ExistingURLs() []string {
	return append([]string(nil), s.existingURLs...)
}

// PendingFiles returns a copy of the files awaiting upload in order.
func (s *ImageSet) PendingFiles() []File {
	return append([]File(nil), s.pendingFiles...)
}

// Total is the combined count of persisted URLs and pending files.
func (s *ImageSet) Total() int {
	return len(s.existingURLs) + len(s.pendingFiles)
}

// Previews produces one display reference per image: persisted URLs as-is,
// pending files as base64 data URIs.
func (s *ImageSet) Previews() []Preview {
	previews := make([]Preview, 0, s.Total())
	for _, u := range s.existingURLs {
		previews = append(previews, Preview{URL: u})
	}
	for _, f := range s.pendingFiles {
		uri := fmt.Sprintf("data:%s;base64,%s", f.ContentType, base64.StdEncoding.EncodeToString(f.Data))
		previews = append(previews, Preview{URL: uri, Derived: true})
	}
	return previews
}
