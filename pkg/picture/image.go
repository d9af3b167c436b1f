package picture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/save"
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
}

// acceptedStatus reports whether status is in the 200-209 range.
func acceptedStatus(status int) bool {
	return status >= 200 && status <= 209
}

// fetch downloads src and returns it as an opaque square image.
func (p *Pipeline) fetch(ctx context.Context, src string) (image.Image, error) {
	resp, err := p.web.Get(ctx, src, http.Header{"Accept": {"image/*"}})
	if err != nil {
		return nil, err
	}
	body, err := transport.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if !acceptedStatus(resp.StatusCode) {
		return nil, &errors.PictureError{URL: src, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if ct := transport.ContentType(resp); !imageTypes[ct] {
		return nil, &errors.PictureError{URL: src, Message: fmt.Sprintf("content type %q is not a picture", ct)}
	}

	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &errors.PictureError{URL: src, Message: "decode failed", Err: err}
	}
	return p.normalize(img, src)
}

// normalize flattens transparency onto white and cover-crops to the avatar square.
func (p *Pipeline) normalize(img image.Image, src string) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &errors.PictureError{URL: src, Message: "empty image"}
	}

	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, imaging.Clone(img), image.Pt(0, 0), 1.0)

	return imaging.Fill(flat, p.size, p.size, imaging.Center, imaging.Lanczos), nil
}

func (p *Pipeline) write(img image.Image, path string) error {
	return save.Write(func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(constants.AvatarQuality))
	}, save.WithPath(path))
}
