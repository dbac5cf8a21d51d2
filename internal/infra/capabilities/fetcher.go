package capabilities

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/rs/zerolog/log"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
	"github.com/ebulabs/broadcasting-hotspot/internal/version"
)

const (
	// CapabilitiesPath is appended to the hotspot base URL.
	CapabilitiesPath = "/capabilities"

	// ProgrammesPath lists the programmes of one tech.
	ProgrammesPath = "/programmes"

	// ExpectedContentType is the media type the hotspot should declare.
	ExpectedContentType = "text/xml"

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 15 * time.Second

	// maxBodySize caps the document read from the hotspot.
	maxBodySize = 1 << 20
)

// Fetcher retrieves documents from the hotspot over HTTP.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	warn       func(msg string)
}

// Option is a functional option for configuring the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. The client is never modified;
// a nil client selects the default one.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout. It applies to a copy of the
// client given with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithWarnFunc sets the hook called for non-fatal problems such as an
// unexpected Content-Type.
func WithWarnFunc(fn func(msg string)) Option {
	return func(f *Fetcher) {
		f.warn = fn
	}
}

// NewFetcher creates a new capabilities fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: version.GetInfo().UserAgent(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if f.timeout > 0 {
		client := *f.httpClient
		client.Timeout = f.timeout
		f.httpClient = &client
	}

	return f
}

// Fetch downloads and parses <baseURL>/capabilities.
func (f *Fetcher) Fetch(ctx context.Context, baseURL string) ([]hotspot.Tech, error) {
	reqURL, err := BuildURL(baseURL, CapabilitiesPath, nil)
	if err != nil {
		return nil, err
	}

	var techs []hotspot.Tech
	err = f.get(ctx, reqURL, func(body io.Reader) error {
		var perr error
		techs, perr = Parse(body)
		return perr
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", reqURL).Int("techs", len(techs)).Msg("Capabilities parsed")
	return techs, nil
}

// FetchProgrammes downloads and parses the programme list for tech.
func (f *Fetcher) FetchProgrammes(ctx context.Context, baseURL, tech string) ([]hotspot.ProgrammeInfo, error) {
	reqURL, err := BuildURL(baseURL, ProgrammesPath, url.Values{"tech": {tech}})
	if err != nil {
		return nil, err
	}

	var programmes []hotspot.ProgrammeInfo
	err = f.get(ctx, reqURL, func(body io.Reader) error {
		var perr error
		programmes, perr = ParseProgrammes(body)
		return perr
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", reqURL).Str("tech", tech).Int("programmes", len(programmes)).Msg("Programmes parsed")
	return programmes, nil
}

func (f *Fetcher) get(ctx context.Context, reqURL string, parse func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return hotspot.NewError(hotspot.KindMalformedURL, "build request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", ExpectedContentType)

	log.Debug().Str("url", reqURL).Msg("Fetching from hotspot")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return hotspot.NewError(hotspot.KindIO, "GET "+reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return hotspot.NewError(hotspot.KindIO, "GET "+reqURL, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	f.checkContentType(reqURL, resp.Header.Get("Content-Type"))

	return parse(io.LimitReader(resp.Body, maxBodySize))
}

// checkContentType logs a warning when the declared type is not text/xml.
// Parsing continues either way.
func (f *Fetcher) checkContentType(reqURL, header string) {
	if IsXMLContentType(header) {
		return
	}

	log.Warn().
		Str("url", reqURL).
		Str("content_type", header).
		Msg("Content-Type is not text/xml")

	if f.warn != nil {
		f.warn("Error: Content-Type is not " + ExpectedContentType + " !")
	}
}

// IsXMLContentType reports whether header declares exactly text/xml.
// Media type parameters such as charset are allowed.
func IsXMLContentType(header string) bool {
	if header == "" {
		return false
	}
	mt, err := contenttype.ParseMediaType(header)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt.Type, "text") && strings.EqualFold(mt.Subtype, "xml")
}

// BuildURL joins baseURL and path and validates the result.
func BuildURL(baseURL, path string, query url.Values) (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path

	u, err := url.Parse(raw)
	if err != nil {
		return "", hotspot.NewError(hotspot.KindMalformedURL, "build URL "+raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", hotspot.NewError(hotspot.KindMalformedURL, "build URL "+raw, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return "", hotspot.NewError(hotspot.KindMalformedURL, "build URL "+raw, fmt.Errorf("missing host"))
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
