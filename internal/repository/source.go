package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pep299/iracify/internal/infrastructure"
)

const (
	// MaxBodyBytes caps downloaded and uploaded documents.
	MaxBodyBytes = 8 << 20

	// Minimum usable text length, in characters.
	MinURLTextChars    = 200
	MinUploadTextChars = 100

	userAgent = "IRACifyBot/1.0 (+https://iracify.app)"
)

// Document kinds
const (
	KindHTML = "html"
	KindPDF  = "pdf"
	KindText = "text"
)

// Document is extracted plain text together with where it came from.
type Document struct {
	Source string
	Kind   string
	Text   string
}

// SourceRepository turns URLs and uploads into plain text.
type SourceRepository interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
	ExtractUpload(name string, data []byte) (*Document, error)
}

type sourceRepository struct {
	httpClient *http.Client
	timeout    time.Duration
	objects    ObjectReader // nil disables gs:// URLs
	logger     *infrastructure.Logger
}

// NewSourceRepository creates a SourceRepository. objects may be nil.
func NewSourceRepository(timeout time.Duration, objects ObjectReader, logger *infrastructure.Logger) SourceRepository {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &sourceRepository{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		objects:    objects,
		logger:     logger,
	}
}

func (s *sourceRepository) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "fetch")
	defer span.End()

	rawURL = strings.TrimSpace(rawURL)
	doc, err := s.fetch(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.logger.Warn("Fetch failed", "url", rawURL, "error", err)
		return nil, err
	}
	if err := checkLength(doc, MinURLTextChars); err != nil {
		span.SetStatus(codes.Error, "too little text")
		return nil, err
	}

	span.SetAttributes(attribute.String("fetch.kind", doc.Kind), attribute.Int("fetch.chars", len(doc.Text)))
	s.logger.Info("Fetched document", "url", rawURL, "kind", doc.Kind, "chars", len(doc.Text))
	return doc, nil
}

func (s *sourceRepository) fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, &FetchError{Source: rawURL, Message: "invalid URL", Err: err}
	}

	switch u.Scheme {
	case "http", "https":
		return s.fetchHTTP(ctx, rawURL)
	case "gs":
		return s.fetchObject(ctx, rawURL)
	default:
		return nil, &FetchError{Source: rawURL, Message: "URL must start with http://, https:// or gs://"}
	}
}

func (s *sourceRepository) fetchHTTP(ctx context.Context, rawURL string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Source: rawURL, Message: "creating request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return nil, &FetchError{Source: rawURL, Message: fmt.Sprintf("timed out after %s", s.timeout), Err: err}
		}
		return nil, &FetchError{Source: rawURL, Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: rawURL, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	data, err := readCapped(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: rawURL, Message: err.Error()}
	}
	return extractDocument(rawURL, data, resp.Header.Get("Content-Type"), req.URL.Path)
}

func (s *sourceRepository) fetchObject(ctx context.Context, rawURL string) (*Document, error) {
	if s.objects == nil {
		return nil, &FetchError{Source: rawURL, Message: "gs:// URLs are not enabled"}
	}
	bucket, object, err := parseGCSURI(rawURL)
	if err != nil {
		return nil, &FetchError{Source: rawURL, Message: "invalid gs:// URL", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, contentType, err := s.objects.ReadObject(ctx, bucket, object, MaxBodyBytes+1)
	if err != nil {
		return nil, &FetchError{Source: rawURL, Message: "reading object", Err: err}
	}
	if len(data) > MaxBodyBytes {
		return nil, &FetchError{Source: rawURL, Message: "document exceeds 8 MiB"}
	}
	return extractDocument(rawURL, data, contentType, object)
}

func (s *sourceRepository) ExtractUpload(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &FetchError{Source: name, Message: "empty upload"}
	}
	if len(data) > MaxBodyBytes {
		return nil, &FetchError{Source: name, Message: "document exceeds 8 MiB"}
	}
	doc, err := extractDocument(name, data, "", name)
	if err != nil {
		return nil, err
	}
	if err := checkLength(doc, MinUploadTextChars); err != nil {
		return nil, err
	}
	s.logger.Info("Extracted upload", "name", name, "kind", doc.Kind, "chars", len(doc.Text))
	return doc, nil
}

// extractDocument picks PDF, HTML or plain text by sniffing the payload.
func extractDocument(source string, data []byte, contentType, name string) (*Document, error) {
	if isPDF(data, contentType, name) {
		text, err := extractPDF(data)
		if err != nil {
			return nil, &FetchError{Source: source, Message: "could not read PDF", Err: err}
		}
		return &Document{Source: source, Kind: KindPDF, Text: text}, nil
	}

	if !utf8.Valid(data) {
		return nil, &FetchError{Source: source, Message: fmt.Sprintf("unsupported content (%s)", orUnknown(contentType))}
	}

	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") || looksLikeHTML(data) ||
		hasSuffixFold(name, ".html") || hasSuffixFold(name, ".htm") {
		text, err := extractTextFromHTML(string(data))
		if err != nil {
			return nil, &FetchError{Source: source, Message: "could not parse HTML", Err: err}
		}
		return &Document{Source: source, Kind: KindHTML, Text: text}, nil
	}

	return &Document{Source: source, Kind: KindText, Text: string(data)}, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return nil, errors.New("document exceeds 8 MiB")
	}
	return data, nil
}

func checkLength(doc *Document, minChars int) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(doc.Text)); n < minChars {
		return &FetchError{
			Source:  doc.Source,
			Message: fmt.Sprintf("too little text extracted (%d characters, need %d)", n, minChars),
		}
	}
	return nil
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype html"))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), suffix)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown type"
	}
	return s
}

// CheckPastedText applies the upload length rule to pasted text.
func CheckPastedText(text string) error {
	return checkLength(&Document{Source: "pasted text", Kind: KindText, Text: text}, MinUploadTextChars)
}
