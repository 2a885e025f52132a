package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Fetcher is the transcript-fetch collaborator boundary: given a video id it
// returns raw transcript material for the normalizer, or fails.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (RawTranscript, error)
}

// HTTPFetcher fetches caption tracks from the public timedtext endpoint and
// falls back to readable-text extraction from the watch page when no track
// is available. Both paths failing yields ErrTranscriptUnavailable.
type HTTPFetcher struct {
	client             *http.Client
	preferredLanguages []string
	logger             *log.Logger

	captionURL string
	watchURL   string
	oembedURL  string
}

func NewHTTPFetcher(timeout time.Duration, preferredLanguages []string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if len(preferredLanguages) == 0 {
		preferredLanguages = []string{"en"}
	}
	return &HTTPFetcher{
		client:             &http.Client{Timeout: timeout},
		preferredLanguages: preferredLanguages,
		logger:             log.New(log.Writer(), "[FETCH] ", log.LstdFlags),
		captionURL:         "https://video.google.com/timedtext",
		watchURL:           "https://www.youtube.com/watch",
		oembedURL:          "https://noembed.com/embed",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, videoID string) (RawTranscript, error) {
	title := f.fetchTitle(ctx, videoID)

	raw, captionErr := f.fromCaptions(ctx, videoID)
	if captionErr == nil {
		raw.VideoTitle = title
		return raw, nil
	}
	f.logger.Printf("captions failed for %s: %v; trying page extraction", videoID, captionErr)

	raw, extractErr := f.fromWatchPage(ctx, videoID)
	if extractErr == nil {
		if title != "" {
			raw.VideoTitle = title
		}
		return raw, nil
	}
	return RawTranscript{}, fmt.Errorf("%w: captions: %v; extraction: %v",
		ErrTranscriptUnavailable, captionErr, extractErr)
}

// timedtext XML shape: <transcript><text start="1.3" dur="4.1">...</text></transcript>
type timedTextDoc struct {
	Texts []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Body  string  `xml:",chardata"`
}

func (f *HTTPFetcher) fromCaptions(ctx context.Context, videoID string) (RawTranscript, error) {
	var lastErr error
	for _, lang := range f.preferredLanguages {
		q := url.Values{"v": {videoID}, "lang": {lang}}
		body, err := f.get(ctx, f.captionURL+"?"+q.Encode())
		if err != nil {
			lastErr = err
			continue
		}
		var doc timedTextDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			lastErr = fmt.Errorf("lang %s: %w", lang, err)
			continue
		}
		if len(doc.Texts) == 0 {
			lastErr = fmt.Errorf("lang %s: empty track", lang)
			continue
		}
		cues := make([]Cue, 0, len(doc.Texts))
		for _, t := range doc.Texts {
			cues = append(cues, Cue{
				Start: time.Duration(t.Start * float64(time.Second)),
				Text:  html.UnescapeString(t.Body),
			})
		}
		return RawTranscript{
			Cues:           cues,
			SourceLanguage: lang,
			SourceType:     SourceCaptions,
		}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no caption track")
	}
	return RawTranscript{}, lastErr
}

func (f *HTTPFetcher) fromWatchPage(ctx context.Context, videoID string) (RawTranscript, error) {
	pageURL := f.watchURL + "?v=" + url.QueryEscape(videoID)
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return RawTranscript{}, err
	}
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return RawTranscript{}, fmt.Errorf("readability: %w", err)
	}
	if article.TextContent == "" {
		return RawTranscript{}, fmt.Errorf("no readable text on page")
	}
	return RawTranscript{
		PlainText:      article.TextContent,
		SourceLanguage: "Unknown",
		SourceType:     SourceExtracted,
		VideoTitle:     article.Title,
	}, nil
}

// fetchTitle is best effort; "Unknown Title" is an acceptable answer.
func (f *HTTPFetcher) fetchTitle(ctx context.Context, videoID string) string {
	target := url.QueryEscape(f.watchURL + "?v=" + videoID)
	body, err := f.get(ctx, f.oembedURL+"?url="+target)
	if err != nil {
		return ""
	}
	var payload struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Title
}

// get issues a GET with one retry; transcript fetching is read-only and
// safe to repeat.
func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(300 * time.Millisecond << attempt):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%s: %s", target, resp.Status)
			continue
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("%s: empty body", target)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}
