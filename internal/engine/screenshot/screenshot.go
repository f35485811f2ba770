// Package screenshot writes frames read back from the GL framebuffer.
package screenshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/softmesh/internal/snapshot"
)

// Capture names and writes screenshots into a directory.
type Capture struct {
	Dir    string
	Prefix string
	Ext    string // .png, .bmp or .tiff

	now func() time.Time
}

// New creates a capture writing PNG files named prefix_<timestamp> into dir.
func New(dir, prefix string) *Capture {
	return &Capture{Dir: dir, Prefix: prefix, Ext: ".png", now: time.Now}
}

// Filename returns the path the next capture will be written to.
func (c *Capture) Filename() string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	name := fmt.Sprintf("%s_%s%s", c.Prefix, now().Format("2006-01-02_15-04-05"), c.Ext)
	if c.Dir != "" {
		name = filepath.Join(c.Dir, name)
	}
	return name
}

// FromPixels copies bottom-up RGBA rows, as glReadPixels returns them, into
// a top-down image.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := range height {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}

// Save writes raw framebuffer pixels and returns the file name.
func (c *Capture) Save(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}
	if c.Dir != "" {
		if err := os.MkdirAll(c.Dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	name := c.Filename()
	if err := snapshot.WriteImage(name, img); err != nil {
		return "", err
	}
	return name, nil
}
