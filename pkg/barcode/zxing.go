package barcode

import (
	"errors"
	"image"
	"slices"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXing decodes DataMatrix and QR symbols with gozxing. Every reader is tried
// and distinct payloads are returned in reader order.
type ZXing struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXing() *ZXing {
	return &ZXing{
		readers: []gozxing.Reader{
			datamatrix.NewDataMatrixReader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (z *ZXing) Decode(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}

	var (
		codes   []string
		lastErr error
	)
	for _, r := range z.readers {
		res, err := r.Decode(bmp, z.hints)
		if err != nil {
			if !isNotFound(err) {
				lastErr = err
			}
			continue
		}
		if text := res.GetText(); text != "" && !slices.Contains(codes, text) {
			codes = append(codes, text)
		}
	}

	if len(codes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return codes, nil
}

// isNotFound separates "no symbol on this page" from real decode failures.
func isNotFound(err error) bool {
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}
