// Package fynefrontend implements the draw-target capability (spec §6.3)
// over a Fyne desktop window, grounded on the teacher repository's
// pkg/display/fyne/fyne.go raster-canvas idiom. It is an external
// collaborator of internal/core (spec §1: "the desktop windowing ... layer
// (treated as a draw-target ... interface the core consumes)"), never
// imported by internal/core itself.
package fynefrontend

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"

	"github.com/bassicali/gem-sub000/internal/core/gpu"
)

const (
	scale = 4
)

// Frontend owns a Fyne application/window pair and implements
// gpu.DrawTarget by blitting each completed frame onto a raster canvas.
type Frontend struct {
	app    fyne.App
	window fyne.Window
	img    *image.RGBA
	raster *canvas.Raster
}

// New creates (but does not show) a Fyne window sized for the Game Boy's
// 160x144 framebuffer at the teacher's default 4x scale factor.
func New(title string) *Frontend {
	a := app.NewWithID("gemcore")
	w := a.NewWindow(title)
	w.SetPadded(false)

	img := image.NewRGBA(image.Rect(0, 0, gpu.ScreenWidth, gpu.ScreenHeight))
	f := &Frontend{app: a, window: w, img: img}

	f.raster = canvas.NewRasterFromImage(img)
	f.raster.ScaleMode = canvas.ImageScalePixels
	f.raster.SetMinSize(fyne.NewSize(gpu.ScreenWidth*scale, gpu.ScreenHeight*scale))
	w.SetContent(f.raster)
	w.Resize(fyne.NewSize(gpu.ScreenWidth*scale, gpu.ScreenHeight*scale))

	return f
}

// Present implements gpu.DrawTarget by copying frame into the backing
// image and requesting a canvas refresh.
func (f *Frontend) Present(frame *[gpu.ScreenHeight][gpu.ScreenWidth][4]uint8) {
	for y := 0; y < gpu.ScreenHeight; y++ {
		for x := 0; x < gpu.ScreenWidth; x++ {
			p := frame[y][x]
			i := f.img.PixOffset(x, y)
			f.img.Pix[i+0] = p[0]
			f.img.Pix[i+1] = p[1]
			f.img.Pix[i+2] = p[2]
			f.img.Pix[i+3] = p[3]
		}
	}
	f.raster.Refresh()
}

// OnKey registers a handler for typed keys, used by the launcher to
// translate Fyne key events into joypad Press/Release calls.
func (f *Frontend) OnKey(fn func(*fyne.KeyEvent)) {
	f.window.Canvas().SetOnTypedKey(fn)
}

// ShowAndRun shows the window and blocks on Fyne's event loop; callers
// typically run the Tick loop on a separate goroutine beforehand.
func (f *Frontend) ShowAndRun() {
	f.window.ShowAndRun()
}

var _ gpu.DrawTarget = (*Frontend)(nil)
