package barcode

import "errors"

var (
	ErrTimeout = errors.New("barcode page timeout")
	ErrDecode  = errors.New("barcode decode failed")
	ErrRender  = errors.New("page render failed")
	ErrOpen    = errors.New("document open failed")
)
