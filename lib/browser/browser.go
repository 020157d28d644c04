// Package browser is the boundary to the browser automation layer. The
// portal has no API, the export flow only exists as menus and buttons,
// so the fetcher drives a real page through this interface. Tests use a
// scripted fake; production uses the chromedp session.
package browser

import (
	"context"
	"errors"
)

var ErrElementNotFound = errors.New("element not found")

// Element is a handle to a located page element. Handles go stale when
// the page re-renders; callers re-locate and re-read attributes rather
// than caching anything across steps.
type Element struct {
	Selector string
	NodeID   int64
}

type Session interface {
	Navigate(ctx context.Context, url string) error
	Locate(ctx context.Context, selector string) (Element, error)
	Click(ctx context.Context, el Element) error
	// ReadAttribute returns the attribute's current value, re-read from
	// the live page.
	ReadAttribute(ctx context.Context, el Element, name string) (string, error)
	// WaitForDownload runs trigger and blocks until the download it
	// started completes, returning the path of the downloaded file.
	WaitForDownload(ctx context.Context, trigger func(ctx context.Context) error) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}
