package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

type ChromeOptions struct {
	// ExecPath is the chrome binary; empty means chromedp's default lookup.
	ExecPath string `json:"exec_path"`
	Headless bool   `json:"headless"`
	// DownloadDir is where completed downloads land, named by guid.
	DownloadDir string `json:"download_dir"`
	// ActionTimeout bounds every navigation, wait and click. The
	// automation layer's own default timeout, nothing else in the
	// pipeline sets per-operation deadlines.
	ActionTimeout time.Duration `json:"action_timeout"`
}

// ChromeSession implements Session on a dedicated chromedp browser
// context. One session maps to one page; the fetch pipeline is strictly
// sequential, so no locking is needed here.
type ChromeSession struct {
	opts        ChromeOptions
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func NewChromeSession(ctx context.Context, opts ChromeOptions) (*ChromeSession, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = time.Second * 30
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// start the browser eagerly so a missing binary fails here, not on
	// the first fetch
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	s := &ChromeSession{
		opts:        opts,
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}

	if opts.DownloadDir != "" {
		err := chromedp.Run(browserCtx,
			browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
				WithDownloadPath(opts.DownloadDir).
				WithEventsEnabled(true),
		)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("set download behavior: %w", err)
		}
	}

	return s, nil
}

func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.opts.ActionTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tctx, actions...) }()

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) Locate(ctx context.Context, selector string) (Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(1)))
	if err != nil {
		return Element{}, err
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return Element{Selector: selector, NodeID: int64(nodes[0].NodeID)}, nil
}

func (s *ChromeSession) Click(ctx context.Context, el Element) error {
	return s.run(ctx, chromedp.Click([]cdp.NodeID{cdp.NodeID(el.NodeID)}, chromedp.ByNodeID))
}

func (s *ChromeSession) ReadAttribute(ctx context.Context, el Element, name string) (string, error) {
	var value string
	var ok bool
	err := s.run(ctx, chromedp.AttributeValue(
		[]cdp.NodeID{cdp.NodeID(el.NodeID)}, name, &value, &ok, chromedp.ByNodeID,
	))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("element %s has no attribute %q", el.Selector, name)
	}
	return value, nil
}

func (s *ChromeSession) WaitForDownload(ctx context.Context, trigger func(ctx context.Context) error) (string, error) {
	guidCh := make(chan string, 1)
	listenCtx, stopListening := context.WithCancel(s.ctx)
	defer stopListening()

	chromedp.ListenBrowser(listenCtx, func(ev any) {
		if progress, ok := ev.(*browser.EventDownloadProgress); ok {
			if progress.State == browser.DownloadProgressStateCompleted {
				select {
				case guidCh <- progress.GUID:
				default:
				}
			}
		}
	})

	if err := trigger(ctx); err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts.ActionTimeout)
	defer cancel()
	select {
	case guid := <-guidCh:
		return filepath.Join(s.opts.DownloadDir, guid), nil
	case <-tctx.Done():
		return "", fmt.Errorf("waiting for download: %w", tctx.Err())
	}
}

func (s *ChromeSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (s *ChromeSession) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}
