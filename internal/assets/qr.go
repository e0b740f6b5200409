package assets

import (
	"image"
	"image/color"
	"sync"

	"github.com/skip2/go-qrcode"
)

// QRSize is the pixel size QR bitmaps are generated at before scaling.
const QRSize = 256

type qrKey struct {
	content string
	fg, bg  color.RGBA
}

type qrEntry struct {
	img image.Image
	err error
}

// QRCodes generates QR bitmaps and caches them per distinct content and
// colors.
type QRCodes struct {
	mu    sync.Mutex
	cache map[qrKey]qrEntry
}

func NewQRCodes() *QRCodes {
	return &QRCodes{cache: map[qrKey]qrEntry{}}
}

// Get returns the QR image for content. Encoding failures, such as content
// too long for any QR version, are cached too.
func (q *QRCodes) Get(content string, fg, bg color.Color) (image.Image, error) {
	key := qrKey{content: content, fg: rgba(fg), bg: rgba(bg)}

	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.cache[key]; ok {
		return e.img, e.err
	}

	var e qrEntry
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		e.err = err
	} else {
		if fg != nil {
			code.ForegroundColor = fg
		}
		if bg != nil {
			code.BackgroundColor = bg
		}
		code.DisableBorder = true
		e.img = code.Image(QRSize)
	}
	q.cache[key] = e
	return e.img, e.err
}

// PNG encodes content as a PNG with the default colors.
func (q *QRCodes) PNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, QRSize)
}

func rgba(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}
