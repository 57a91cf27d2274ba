// ABOUTME: Image source for multipart resources: an uploaded file or a URL
// ABOUTME: Switching modes clears the other mode's pending value

package resources

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
)

// ImageMode selects where a submitted image comes from
type ImageMode int

const (
	ImageUpload ImageMode = iota
	ImageURL
)

func (m ImageMode) String() string {
	if m == ImageURL {
		return "url"
	}
	return "upload"
}

// ImageSource is the image part of a draft. Exactly one mode is honored per
// submission.
type ImageSource struct {
	mode     ImageMode
	file     string
	url      string
	existing string
}

// ExistingImage builds the image source of an item being edited. Absolute
// http(s) values start in URL mode with the value prefilled.
func ExistingImage(current string) ImageSource {
	s := ImageSource{existing: current}
	if strings.HasPrefix(current, "http://") || strings.HasPrefix(current, "https://") {
		s.mode = ImageURL
		s.url = current
	}
	return s
}

// SetMode switches mode, dropping the other mode's pending value
func (s *ImageSource) SetMode(m ImageMode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.file = ""
	s.url = ""
}

// SelectFile chooses a local file to upload and clears any pending URL
func (s *ImageSource) SelectFile(path string) {
	s.mode = ImageUpload
	s.file = strings.TrimSpace(path)
	s.url = ""
}

// SetURL chooses an external image URL and clears any selected file
func (s *ImageSource) SetURL(u string) {
	s.mode = ImageURL
	s.url = strings.TrimSpace(u)
	s.file = ""
}

func (s ImageSource) Mode() ImageMode  { return s.mode }
func (s ImageSource) File() string     { return s.file }
func (s ImageSource) URL() string      { return s.url }
func (s ImageSource) Existing() string { return s.existing }

// Pending reports whether the active mode carries a new value
func (s ImageSource) Pending() bool {
	if s.mode == ImageURL {
		return s.url != ""
	}
	return s.file != ""
}

// HasImage reports whether a submission would leave the item with an image
func (s ImageSource) HasImage() bool {
	return s.Pending() || s.existing != ""
}

// validate checks that a selected file can be read
func (s ImageSource) validate() error {
	if s.mode != ImageUpload || s.file == "" {
		return nil
	}
	info, err := os.Stat(s.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &crud.ValidationError{Field: "image", Message: fmt.Sprintf("file %s not found", s.file)}
		}
		return &crud.ValidationError{Field: "image", Message: err.Error()}
	}
	if info.IsDir() {
		return &crud.ValidationError{Field: "image", Message: fmt.Sprintf("%s is a directory", s.file)}
	}
	return nil
}

// resolve returns what the active mode contributes to a request: an image URL
// for the JSON part or a file upload. The returned closer must be called once
// the request is done.
func (s ImageSource) resolve() (imageURL string, upload *client.Upload, closer func(), err error) {
	closer = func() {}
	switch {
	case s.mode == ImageURL && s.url != "":
		return s.url, nil, closer, nil
	case s.mode == ImageUpload && s.file != "":
		f, err := os.Open(s.file)
		if err != nil {
			return "", nil, closer, fmt.Errorf("open image: %w", err)
		}
		return "", &client.Upload{Filename: s.file, Content: f}, func() { closeQuietly(f) }, nil
	}
	return "", nil, closer, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
