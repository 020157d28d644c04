package timetable

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"urnik-backend/lib/browser"
	"urnik-backend/lib/bus"
	"urnik-backend/lib/retry"
	"urnik-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

type FetchConfig struct {
	// PortalUrl is the export page the browser is pointed at.
	PortalUrl string `json:"portal_url"`
	// DataDir holds the canonical workbook per target.
	DataDir string `json:"data_dir"`
	// ScreenshotDir receives a page screenshot whenever a step fails.
	// Empty disables screenshots.
	ScreenshotDir string `json:"screenshot_dir"`

	ProgramSelector string `json:"program_selector"`
	GradeSelector   string `json:"grade_selector"`
	ProjectSelector string `json:"project_selector"`
	FormatSelector  string `json:"format_selector"`
	ExportSelector  string `json:"export_selector"`
	// ExportFormatValue is the option value of the spreadsheet format
	// in the format dropdown.
	ExportFormatValue string `json:"export_format_value"`

	Retry retry.Options `json:"retry"`
}

func (c FetchConfig) withDefaults() FetchConfig {
	if c.ProgramSelector == "" {
		c.ProgramSelector = "select#program"
	}
	if c.GradeSelector == "" {
		c.GradeSelector = "select#letnik"
	}
	if c.ProjectSelector == "" {
		c.ProjectSelector = "select#projekt"
	}
	if c.FormatSelector == "" {
		c.FormatSelector = "select#format"
	}
	if c.ExportSelector == "" {
		c.ExportSelector = "button#izvoz"
	}
	if c.ExportFormatValue == "" {
		c.ExportFormatValue = "xlsx"
	}
	return c
}

// Fetcher drives the portal's export form in a real browser and keeps
// one canonical workbook file per target on disk.
type Fetcher struct {
	cfg     FetchConfig
	session browser.Session
	bus     bus.Bus
}

func NewFetcher(cfg FetchConfig, session browser.Session, b bus.Bus) Fetcher {
	return Fetcher{cfg: cfg.withDefaults(), session: session, bus: b}
}

// Fetch exports the target's workbook and reconciles it against the
// canonical copy. Transient browser failures are retried per step; a
// target the portal does not know is reported as permanent so the
// caller stops retrying and moves on.
func (f Fetcher) Fetch(ctx context.Context, target Target, matrix OptionMatrix) error {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	program, err := matrix.Resolve(target)
	if err != nil {
		slog.ErrorContext(
			ctx, "target does not resolve against the portal",
			"course", target.CourseCode,
			"grade", target.Grade,
			"err", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unresolvable target")
		f.screenshot(ctx, target, "resolve")
		return retry.Permanent(err)
	}

	if err := f.step(ctx, target, "navigate", func() error {
		return f.session.Navigate(ctx, f.cfg.PortalUrl)
	}); err != nil {
		return err
	}

	if err := f.step(ctx, target, "select_program", func() error {
		return f.clickOption(ctx, f.cfg.ProgramSelector, program.Value)
	}); err != nil {
		return err
	}
	if err := f.step(ctx, target, "select_grade", func() error {
		return f.clickOption(ctx, f.cfg.GradeSelector, fmt.Sprintf("%d", target.Grade))
	}); err != nil {
		return err
	}
	if target.Project != "" {
		if err := f.step(ctx, target, "select_project", func() error {
			return f.clickOption(ctx, f.cfg.ProjectSelector, target.Project)
		}); err != nil {
			return err
		}
	}
	if err := f.step(ctx, target, "select_format", func() error {
		return f.clickOption(ctx, f.cfg.FormatSelector, f.cfg.ExportFormatValue)
	}); err != nil {
		return err
	}

	var download string
	err = f.step(ctx, target, "export", func() error {
		trigger, err := f.session.Locate(ctx, f.cfg.ExportSelector)
		if err != nil {
			return err
		}
		download, err = f.session.WaitForDownload(ctx, func(ctx context.Context) error {
			return f.session.Click(ctx, trigger)
		})
		return err
	})
	if err != nil {
		return err
	}

	return f.reconcile(ctx, target, download)
}

// step runs one browser interaction under the retry policy and leaves
// a screenshot behind when it still fails.
func (f Fetcher) step(ctx context.Context, target Target, name string, op func() error) error {
	_, err := retry.Do(ctx, name, f.cfg.Retry, func() (struct{}, error) {
		return struct{}{}, op()
	})
	if err != nil {
		f.screenshot(ctx, target, name)
	}
	return err
}

func (f Fetcher) clickOption(ctx context.Context, selector, value string) error {
	el, err := f.session.Locate(ctx, fmt.Sprintf(`%s option[value=%s]`, selector, cssString(value)))
	if err != nil {
		return err
	}
	// the portal re-renders its dropdowns between steps; re-read the
	// option's live value so a stale handle fails instead of clicking
	// the wrong thing
	got, err := f.session.ReadAttribute(ctx, el, "value")
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("option under %s changed value to %q", selector, got)
	}
	return f.session.Click(ctx, el)
}

// cssString quotes a scraped value for use inside an attribute
// selector; option values come from the portal and are not trusted to
// be selector-safe.
func cssString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}

func (f Fetcher) screenshot(ctx context.Context, target Target, step string) {
	if f.cfg.ScreenshotDir == "" {
		return
	}

	name := fmt.Sprintf(
		"%s-%d_%s_%s.png",
		target.CourseCode, target.Grade, step,
		timezone.Now().Format("2006-01-02T15-04-05"),
	)
	path := filepath.Join(f.cfg.ScreenshotDir, name)
	if err := f.session.Screenshot(ctx, path); err != nil {
		slog.WarnContext(ctx, "failed to capture failure screenshot", "step", step, "err", err)
		return
	}
	slog.WarnContext(ctx, "captured failure screenshot", "path", path)
}

// CanonicalPath is where the last known good workbook for a target
// lives. The parser reads from here, never from the download dir.
func (f Fetcher) CanonicalPath(target Target) string {
	return filepath.Join(f.cfg.DataDir, fmt.Sprintf("%s-%d.xlsx", target.CourseCode, target.Grade))
}

// reconcile compares the fresh download against the canonical copy.
// Identical bytes mean nothing downstream has to happen, so only the
// course's freshness timestamp event goes out and the download is
// dropped. A changed workbook replaces the canonical copy (keeping the
// previous one as .bak) and announces itself on the bus.
func (f Fetcher) reconcile(ctx context.Context, target Target, download string) error {
	ctx, span := tracer.Start(ctx, "reconcile")
	defer span.End()

	canonical := f.CanonicalPath(target)

	freshSum, err := fileChecksum(download)
	if err != nil {
		return fmt.Errorf("failed to hash download: %w", err)
	}

	knownSum := ""
	if _, err := os.Stat(canonical); err == nil {
		knownSum, err = fileChecksum(canonical)
		if err != nil {
			return fmt.Errorf("failed to hash canonical workbook: %w", err)
		}
	}

	if freshSum == knownSum {
		slog.InfoContext(
			ctx, "workbook is unchanged",
			"course", target.CourseCode,
			"grade", target.Grade,
		)
		if err := os.Remove(download); err != nil {
			slog.WarnContext(ctx, "failed to remove duplicate download", "path", download, "err", err)
		}
		return f.bus.PublishFetched(bus.Fetched{
			Timestamp:  timezone.Now(),
			CourseCode: target.CourseCode,
			Grade:      target.Grade,
		})
	}

	backup := canonical + ".bak"
	if knownSum != "" {
		if err := os.Rename(canonical, backup); err != nil {
			return fmt.Errorf("failed to back up previous workbook: %w", err)
		}
	}
	if err := moveFile(download, canonical); err != nil {
		if knownSum != "" {
			if restoreErr := os.Rename(backup, canonical); restoreErr != nil {
				slog.ErrorContext(ctx, "failed to restore previous workbook", "path", canonical, "err", restoreErr)
			}
		}
		return fmt.Errorf("failed to install new workbook: %w", err)
	}
	if knownSum != "" {
		if err := os.Remove(backup); err != nil {
			slog.WarnContext(ctx, "failed to remove workbook backup", "path", backup, "err", err)
		}
	}

	slog.InfoContext(
		ctx, "workbook changed",
		"course", target.CourseCode,
		"grade", target.Grade,
		"path", canonical,
	)
	return f.bus.PublishFileUpdated(bus.FileUpdated{
		Path:       canonical,
		CourseCode: target.CourseCode,
		Grade:      target.Grade,
		GroupLabel: target.GroupLabel,
	})
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// moveFile survives the download dir and data dir being on different
// filesystems, where a plain rename fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
