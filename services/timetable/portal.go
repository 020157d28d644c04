package timetable

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"urnik-backend/lib/telemetry"
	"urnik-backend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

// ProgramOption is one entry of the portal's study-program dropdown.
type ProgramOption struct {
	// Code is the short program code parsed from the option label,
	// the part before the first " - ".
	Code string
	// Label is the full option label as the portal renders it.
	Label string
	// Value is the option value posted back when selecting it.
	Value string
}

// OptionMatrix is a snapshot of the portal's dropdowns, used to turn a
// configured target into the concrete option values the export form
// needs. It goes stale whenever the portal adds or renames programs,
// so the sweeper rebuilds it at the start of every cycle.
type OptionMatrix struct {
	FetchedAt time.Time
	Programs  map[string]ProgramOption
	Grades    []int
	// Projects are the option values of the project dropdown (full-time,
	// part-time and so on). Empty when the faculty has no project split.
	Projects []string
}

// Resolve maps a target onto the portal's dropdowns. A miss is a
// configuration problem, not a transient one; the error names the
// closest known program so a typo in targets.json5 is easy to spot.
func (m OptionMatrix) Resolve(target Target) (ProgramOption, error) {
	program, ok := m.Programs[target.CourseCode]
	if !ok {
		hint := ""
		if closest := m.closestCode(target.CourseCode); closest != "" {
			hint = fmt.Sprintf(" (closest known program: %q)", closest)
		}
		return ProgramOption{}, fmt.Errorf(
			"program %q is not offered by the portal%s", target.CourseCode, hint,
		)
	}

	gradeKnown := false
	for _, g := range m.Grades {
		if g == target.Grade {
			gradeKnown = true
			break
		}
	}
	if !gradeKnown {
		return ProgramOption{}, fmt.Errorf(
			"grade %d is not offered by the portal for %q", target.Grade, target.CourseCode,
		)
	}

	if target.Project != "" {
		projectKnown := false
		for _, p := range m.Projects {
			if p == target.Project {
				projectKnown = true
				break
			}
		}
		if !projectKnown {
			return ProgramOption{}, fmt.Errorf(
				"project %q is not offered by the portal for %q", target.Project, target.CourseCode,
			)
		}
	}
	return program, nil
}

// Expand enumerates the targets the portal currently offers for the
// tracked courses: one per (grade, project) combination in the
// dropdowns, carrying over the configured group label. Courses the
// portal does not list are left out; they show up again the cycle
// after the portal does.
func (m OptionMatrix) Expand(courses []TrackedCourse) []Target {
	projects := m.Projects
	if len(projects) == 0 {
		projects = []string{""}
	}

	var targets []Target
	for _, course := range courses {
		if _, ok := m.Programs[course.Code]; !ok {
			continue
		}
		for _, grade := range m.Grades {
			for _, project := range projects {
				targets = append(targets, Target{
					CourseCode: course.Code,
					Grade:      grade,
					Project:    project,
					GroupLabel: course.GroupLabel,
				})
			}
		}
	}
	return targets
}

func (m OptionMatrix) closestCode(code string) string {
	best := ""
	bestSimilarity := float64(0)
	for known := range m.Programs {
		similarity := matchr.JaroWinkler(code, known, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = known
		}
	}
	return best
}

type PortalOptions struct {
	BaseUrl string `json:"base_url"`
	// Selectors locating the dropdowns on the landing page. Zero
	// values fall back to the portal's ids.
	ProgramSelector string `json:"program_selector"`
	GradeSelector   string `json:"grade_selector"`
	ProjectSelector string `json:"project_selector"`
}

// PortalClient reads the portal's public landing page over plain HTTP.
// Driving the export form itself needs a real browser, this client
// only exists to discover what the form can be asked for.
type PortalClient struct {
	baseUrl *url.URL
	http    *resty.Client

	programSelector string
	gradeSelector   string
	projectSelector string
}

func NewPortalClient(opts PortalOptions) (*PortalClient, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "timetable/portal")

	programSelector := opts.ProgramSelector
	if programSelector == "" {
		programSelector = "select#program"
	}
	gradeSelector := opts.GradeSelector
	if gradeSelector == "" {
		gradeSelector = "select#letnik"
	}
	projectSelector := opts.ProjectSelector
	if projectSelector == "" {
		projectSelector = "select#projekt"
	}

	return &PortalClient{
		baseUrl:         baseUrl,
		http:            client,
		programSelector: programSelector,
		gradeSelector:   gradeSelector,
		projectSelector: projectSelector,
	}, nil
}

// FetchMatrix pulls the landing page and reads both dropdowns out of it.
func (c *PortalClient) FetchMatrix(ctx context.Context) (OptionMatrix, error) {
	ctx, span := tracer.Start(ctx, "FetchMatrix")
	defer span.End()

	res, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return OptionMatrix{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("landing page returned %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return OptionMatrix{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse landing page")
		return OptionMatrix{}, err
	}
	return c.parseMatrix(doc)
}

func (c *PortalClient) parseMatrix(doc *goquery.Document) (OptionMatrix, error) {
	matrix := OptionMatrix{
		FetchedAt: timezone.Now(),
		Programs:  map[string]ProgramOption{},
	}

	doc.Find(c.programSelector + " option").Each(func(_ int, sel *goquery.Selection) {
		value, ok := sel.Attr("value")
		if !ok || value == "" {
			return
		}
		label := strings.TrimSpace(sel.Text())
		code, _, _ := strings.Cut(label, " - ")
		code = strings.TrimSpace(code)
		if code == "" {
			return
		}
		matrix.Programs[code] = ProgramOption{Code: code, Label: label, Value: value}
	})

	doc.Find(c.gradeSelector + " option").Each(func(_ int, sel *goquery.Selection) {
		value, ok := sel.Attr("value")
		if !ok {
			return
		}
		grade, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return
		}
		matrix.Grades = append(matrix.Grades, grade)
	})

	doc.Find(c.projectSelector + " option").Each(func(_ int, sel *goquery.Selection) {
		value, ok := sel.Attr("value")
		if !ok || value == "" {
			return
		}
		matrix.Projects = append(matrix.Projects, value)
	})

	if len(matrix.Programs) == 0 {
		return OptionMatrix{}, fmt.Errorf("no program options under %q, the portal layout may have changed", c.programSelector)
	}
	if len(matrix.Grades) == 0 {
		return OptionMatrix{}, fmt.Errorf("no grade options under %q, the portal layout may have changed", c.gradeSelector)
	}
	return matrix, nil
}
