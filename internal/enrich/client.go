package enrich

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
)

// Info is the display data for a guess. Nil fields mean "unknown".
type Info struct {
	ImageURL    *string `json:"imageUrl"`
	Description *string `json:"description"`
}

const (
	maxDescriptionLength = 100
	maxOccupations       = 2
	fallbackCommaCut     = 60
	fallbackMaxLength    = 60
	fallbackTruncateAt   = 57
)

var (
	presidentPattern  = regexp.MustCompile(`(?i)(\d+(?:st|nd|rd|th)?(?:\s+and\s+\d+(?:st|nd|rd|th)?)?\s+(?:U\.?S\.?|United States)?\s*President(?:,?\s+[^,.]+)?)`)
	occupationPattern = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Businessman[^,.]*)`),
		regexp.MustCompile(`(?i)(Actor[^,.]*)`),
		regexp.MustCompile(`(?i)(Singer[^,.]*)`),
		regexp.MustCompile(`(?i)(Politician[^,.]*)`),
		regexp.MustCompile(`(?i)(Writer[^,.]*)`),
		regexp.MustCompile(`(?i)(Athlete[^,.]*)`),
		regexp.MustCompile(`(?i)(Artist[^,.]*)`),
	}
	whitespace = regexp.MustCompile(`\s+`)
)

// Client resolves guessed names against a Source.
type Client struct {
	source  Source
	timeout time.Duration
	group   singleflight.Group
}

// defaultSharedTimeout bounds a shared lookup when the client has no timeout.
const defaultSharedTimeout = 10 * time.Second

// NewClient creates a client. Lookups are shared between concurrent callers
// of the same name and bounded by timeout, or 10s when timeout is zero.
func NewClient(source Source, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultSharedTimeout
	}
	return &Client{source: source, timeout: timeout}
}

// Lookup tries the plain name, then "(person)" and "(character)" variants.
// The first page found wins even when it has no image. Lookup never fails;
// when nothing is found, or ctx ends first, both fields are nil.
//
// The shared fetch does not inherit cancellation from whichever caller
// started it; each caller only stops waiting when its own ctx ends.
func (c *Client) Lookup(ctx context.Context, name string) Info {
	name = strings.TrimSpace(name)
	if name == "" {
		return Info{}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strings.ToLower(name), func() (any, error) {
		return c.lookup(shared, name), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Info)
	case <-ctx.Done():
		slog.Debug("enrichment lookup abandoned", "name", name, "error", ctx.Err())
		return Info{}
	}
}

func (c *Client) lookup(ctx context.Context, name string) Info {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for _, title := range []string{name, name + " (person)", name + " (character)"} {
		summary, err := c.source.Summary(ctx, title)
		if err != nil {
			slog.Debug("enrichment variant failed", "title", title, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		info := Info{ImageURL: imageURL(summary)}
		desc := describe(summary, title)
		info.Description = &desc
		return info
	}
	return Info{}
}

func imageURL(s *Summary) *string {
	for _, img := range []*Image{s.Original, s.OriginalImage} {
		if img != nil && img.Source != "" {
			u := img.Source
			return &u
		}
	}
	if s.Thumbnail != nil && s.Thumbnail.Source != "" {
		u := strings.Replace(s.Thumbnail.Source, "/thumb/", "/", 1)
		if i := strings.LastIndex(u, "/"); i > 0 {
			u = u[:i]
		}
		return &u
	}
	return nil
}

func describe(s *Summary, title string) string {
	if n := utf8.RuneCountInString(s.Description); n > 0 && n <= maxDescriptionLength {
		return s.Description
	}

	if m := presidentPattern.FindStringSubmatch(s.Extract); m != nil {
		return whitespace.ReplaceAllString(strings.TrimSpace(m[1]), " ")
	}

	var occupations []string
	for _, re := range occupationPattern {
		if len(occupations) >= maxOccupations {
			break
		}
		if m := re.FindStringSubmatch(s.Extract); m != nil {
			occupations = append(occupations, strings.TrimSpace(m[1]))
		}
	}
	if len(occupations) > 0 {
		return strings.Join(occupations, ", ")
	}

	first, _, _ := strings.Cut(s.Extract, ".")
	namePrefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(title) + `\s*[,\-–—]?\s*`)
	desc := strings.TrimSpace(namePrefix.ReplaceAllString(first, ""))
	if i := strings.Index(desc, ","); i > 0 && i < fallbackCommaCut {
		return desc[:i]
	}
	if utf8.RuneCountInString(desc) > fallbackMaxLength {
		return string([]rune(desc)[:fallbackTruncateAt]) + "..."
	}
	return desc
}
