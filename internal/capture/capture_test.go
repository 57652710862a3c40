package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/drape/internal/errors"
)

// pngHeader is enough for http.DetectContentType to say image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSubmit_AcceptsImage(t *testing.T) {
	c := New()
	require.Equal(t, Placeholder, c.Affordance())

	cand, err := c.Submit(context.Background(), SourcePicker, File{
		Name:        "me.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg-bytes"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, cand.Preview)
	require.True(t, strings.HasPrefix(cand.Preview, "data:image/jpeg;base64,"))
	require.Same(t, cand, c.Current())
	require.Equal(t, ChangePhoto, c.Affordance())
	require.Equal(t, "Change Photo", c.Affordance().Label())
}

func TestSubmit_RejectsNonImageWithoutStateChange(t *testing.T) {
	c := New()
	first, err := c.Submit(context.Background(), SourcePicker, File{Name: "a.png", Data: pngHeader})
	require.NoError(t, err)

	tests := []File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		{Name: "doc.pdf", Data: []byte("%PDF-1.4")},
		{Name: "blob", Data: []byte{0x00, 0x01, 0x02}},
	}
	for _, f := range tests {
		cand, err := c.Submit(context.Background(), SourceDrop, f)
		require.Nil(t, cand)
		require.True(t, errors.Is(err, errors.ErrValidation), "file %q", f.Name)
		require.Same(t, first, c.Current())
		require.Equal(t, ChangePhoto, c.Affordance())
	}
}

func TestSubmit_PickerAndDropConverge(t *testing.T) {
	f := File{Name: "me.png", Data: pngHeader}

	picked, err := New().Submit(context.Background(), SourcePicker, f)
	require.NoError(t, err)
	dropped, err := New().Submit(context.Background(), SourceDrop, f)
	require.NoError(t, err)

	require.Equal(t, picked.File, dropped.File)
	require.Equal(t, picked.Preview, dropped.Preview)
	require.Equal(t, picked.Request("Female"), dropped.Request("Female"))
}

func TestSubmit_ReplacesWholesale(t *testing.T) {
	c := New()
	_, err := c.Submit(context.Background(), SourcePicker, File{Name: "one.png", Data: pngHeader})
	require.NoError(t, err)
	second, err := c.Submit(context.Background(), SourcePicker, File{Name: "two.gif", Data: []byte("GIF89a")})
	require.NoError(t, err)

	require.Same(t, second, c.Current())
	require.Equal(t, "image/gif", c.Current().File.ContentType)
}

func TestSubmit_SupersededByNewerSelection(t *testing.T) {
	c := New()
	release := make(chan struct{})
	started := make(chan struct{})
	c.preview = func(ctx context.Context, ct string, data []byte) (string, error) {
		if string(data) == "slow" {
			close(started)
			<-release
		}
		return Preview(ctx, ct, data)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), SourcePicker, File{Name: "slow.png", Data: []byte("slow")})
		errCh <- err
	}()
	<-started

	fast, err := c.Submit(context.Background(), SourceDrop, File{Name: "fast.png", Data: []byte("fast")})
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-errCh, ErrSuperseded)
	require.Same(t, fast, c.Current())
}

func TestSubmit_CancelledContext(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Submit(ctx, SourcePicker, File{Name: "me.png", Data: pngHeader})
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, c.Current())
	require.Equal(t, Placeholder, c.Affordance())
}

func TestReset(t *testing.T) {
	c := New()
	_, err := c.Submit(context.Background(), SourcePicker, File{Name: "me.png", Data: pngHeader})
	require.NoError(t, err)

	c.Reset()
	require.Nil(t, c.Current())
	require.Equal(t, Placeholder, c.Affordance())
	require.Equal(t, "Browse Files", c.Affordance().Label())
}

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name string
		f    File
		want string
	}{
		{"declared wins", File{Name: "x.txt", ContentType: "image/webp"}, "image/webp"},
		{"declared with params", File{ContentType: "Image/PNG; charset=binary"}, "image/png"},
		{"from extension", File{Name: "photo.JPG"}, "image/jpeg"},
		{"sniffed", File{Name: "photo", Data: pngHeader}, "image/png"},
		{"nothing known", File{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveContentType(tt.f))
		})
	}
}

func TestCandidate_Request(t *testing.T) {
	cand := &Candidate{File: File{Name: "me.png", ContentType: "image/png", Data: []byte("d")}}
	req := cand.Request("Neutral")

	require.Equal(t, "me.png", req.Filename)
	require.Equal(t, "image/png", req.ContentType)
	require.Equal(t, []byte("d"), req.Image)
	require.Equal(t, "Neutral", req.Gender)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0600))

	f, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "me.png", f.Name)
	require.Equal(t, pngHeader, f.Data)
	require.Empty(t, f.ContentType)

	_, err = ReadFile(dir)
	require.True(t, errors.Is(err, errors.ErrValidation))

	_, err = ReadFile(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}
