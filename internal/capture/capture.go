// Package capture turns a picked or dropped file into the upload candidate
// that the next analysis will send.
package capture

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/remote"
)

// ErrSuperseded is returned by Submit when a newer selection (or a reset)
// arrived while the preview was being derived. The stale result is dropped.
var ErrSuperseded = stderrors.New("capture: superseded by a newer selection")

// Source says how a file was supplied. Both sources end in the same Candidate.
type Source int

const (
	SourcePicker Source = iota
	SourceDrop
)

func (s Source) String() string {
	if s == SourceDrop {
		return "drop"
	}
	return "picker"
}

// Affordance is the mode of the upload control.
type Affordance int

const (
	// Placeholder invites the user to pick a photo
	Placeholder Affordance = iota
	// ChangePhoto shows the preview and offers to replace it
	ChangePhoto
)

// Label is the text of the upload button in this mode.
func (a Affordance) Label() string {
	if a == ChangePhoto {
		return "Change Photo"
	}
	return "Browse Files"
}

func (a Affordance) String() string {
	if a == ChangePhoto {
		return "change_photo"
	}
	return "placeholder"
}

// File is a user-supplied file.
type File struct {
	Name        string
	ContentType string // declared type; may be empty
	Data        []byte
}

// MaxFileBytes bounds a photo read from disk.
const MaxFileBytes = 20 << 20

// ReadFile loads a file from disk. The content type is left for Submit to derive.
func ReadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, errors.NewValidation("path is a directory: " + path)
	}
	if info.Size() > MaxFileBytes {
		return File{}, errors.NewValidation("file too large to analyze")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Candidate is the photo that the next analysis will send.
type Candidate struct {
	File    File
	Source  Source
	Preview string // data URI
}

// Request builds the analysis request for this candidate.
func (c *Candidate) Request(gender string) remote.AnalysisRequest {
	return remote.AnalysisRequest{
		Filename:    c.File.Name,
		ContentType: c.File.ContentType,
		Image:       c.File.Data,
		Gender:      gender,
	}
}

// Capture owns the current candidate and the upload control mode.
// It is safe for concurrent use.
type Capture struct {
	mu         sync.Mutex
	candidate  *Candidate
	affordance Affordance
	generation uint64

	preview func(ctx context.Context, contentType string, data []byte) (string, error)
}

// New returns an empty Capture in Placeholder mode.
func New() *Capture {
	return &Capture{preview: Preview}
}

// Submit validates f and, if it is an image, derives its preview and makes
// it the current candidate.
//
// Non-image files are rejected with a validation error and no state change.
// Preview derivation honours ctx. If another Submit or Reset happens while
// this one is deriving, ErrSuperseded is returned and nothing changes.
func (c *Capture) Submit(ctx context.Context, src Source, f File) (*Candidate, error) {
	ct := ResolveContentType(f)
	if !IsImage(ct) {
		return nil, errors.NewValidation("only image files can be analyzed")
	}
	f.ContentType = ct

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	preview, err := c.preview(ctx, ct, f.Data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil, ErrSuperseded
	}
	cand := &Candidate{File: f, Source: src, Preview: preview}
	c.candidate = cand
	c.affordance = ChangePhoto
	return cand, nil
}

// Current returns the current candidate, or nil.
func (c *Capture) Current() *Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidate
}

// Affordance returns the upload control mode.
func (c *Capture) Affordance() Affordance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.affordance
}

// Reset clears the candidate and returns the control to Placeholder.
// Any preview still being derived is discarded.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidate = nil
	c.affordance = Placeholder
	c.generation++
}

// ResolveContentType returns the declared type, or derives one from the
// file extension and then the leading bytes. Parameters are dropped.
func ResolveContentType(f File) string {
	ct := f.ContentType
	if strings.TrimSpace(ct) == "" && f.Name != "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	}
	if strings.TrimSpace(ct) == "" && len(f.Data) > 0 {
		ct = http.DetectContentType(f.Data)
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsImage reports whether a content type is image-like.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// Preview encodes data as a data URI. Large photos take a while to encode,
// so the work runs off the caller's goroutine and ctx can abandon it.
func Preview(ctx context.Context, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan string, 1)
	go func() {
		done <- "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}()

	select {
	case uri := <-done:
		return uri, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
