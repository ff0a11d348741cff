// Package clipboard puts text on the system clipboard.
package clipboard

import (
	"errors"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// ErrWriteFailed is returned when the platform clipboard rejects the text.
var ErrWriteFailed = errors.New("clipboard: write failed")

// Writer places text on the system clipboard. The surface depends on this
// interface so tests can observe copies without a real clipboard.
type Writer interface {
	WriteText(text string) error
}

// ForApp returns a Writer backed by the application's clipboard.
func ForApp(app *application.App) Writer {
	return appWriter{app: app}
}

type appWriter struct {
	app *application.App
}

func (w appWriter) WriteText(text string) error {
	if !w.app.Clipboard.SetText(text) {
		return ErrWriteFailed
	}
	return nil
}
