// Package preprints resolves preprint references against a Crossref style
// works API.
package preprints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/prereview/internal/types"
)

const DefaultBaseURL = "https://api.crossref.org"

// Client looks up preprints by DOI.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = "PREreview/1.0"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type worksResponse struct {
	Message work `json:"message"`
}

type work struct {
	DOI         string   `json:"DOI"`
	Type        string   `json:"type"`
	Subtype     string   `json:"subtype"`
	Title       []string `json:"title"`
	Abstract    string   `json:"abstract"`
	Language    string   `json:"language"`
	URL         string   `json:"URL"`
	Institution []struct {
		Name string `json:"name"`
	} `json:"institution"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		Name   string `json:"name"`
	} `json:"author"`
}

// ResolvePreprintID checks that the reference names a preprint the server
// knows about and returns its id.
func (c *Client) ResolvePreprintID(ctx context.Context, id types.IndeterminatePreprintID) (types.PreprintID, error) {
	doi := normalizeDOI(id.Value)
	if !doiPattern.MatchString(doi) {
		return types.PreprintID{}, fmt.Errorf("%q: %w", id.Value, types.ErrNotAPreprint)
	}
	if _, ok := ServerForDOI(doi); !ok {
		return types.PreprintID{}, fmt.Errorf("%q: %w", doi, types.ErrNotAPreprint)
	}

	w, err := c.fetch(ctx, doi)
	if err != nil {
		return types.PreprintID{}, err
	}
	return preprintID(w, doi)
}

// GetPreprint returns the display metadata of a preprint. Title and
// abstract are converted to markdown.
func (c *Client) GetPreprint(ctx context.Context, id types.PreprintID) (*types.Preprint, error) {
	w, err := c.fetch(ctx, id.Value)
	if err != nil {
		return nil, err
	}
	resolved, err := preprintID(w, id.Value)
	if err != nil {
		return nil, err
	}

	preprint := &types.Preprint{
		ID:       resolved,
		Language: w.Language,
		URL:      w.URL,
	}
	if len(w.Title) > 0 {
		if preprint.Title, err = toMarkdown(w.Title[0]); err != nil {
			return nil, fmt.Errorf("convert title of %s: %w", id, err)
		}
	}
	if w.Abstract != "" {
		if preprint.Abstract, err = toMarkdown(w.Abstract); err != nil {
			return nil, fmt.Errorf("convert abstract of %s: %w", id, err)
		}
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = a.Name
		}
		if name != "" {
			preprint.Authors = append(preprint.Authors, name)
		}
	}
	if preprint.URL == "" {
		preprint.URL = "https://doi.org/" + id.Value
	}
	return preprint, nil
}

func preprintID(w *work, doi string) (types.PreprintID, error) {
	if w.Type != "posted-content" || (w.Subtype != "" && w.Subtype != "preprint") {
		return types.PreprintID{}, fmt.Errorf("%s is %s: %w", doi, w.Type, types.ErrNotAPreprint)
	}
	server, ok := ServerForDOI(doi)
	if !ok {
		return types.PreprintID{}, fmt.Errorf("%q: %w", doi, types.ErrNotAPreprint)
	}
	if server == "biorxiv" {
		for _, inst := range w.Institution {
			if strings.EqualFold(inst.Name, "medrxiv") {
				server = "medrxiv"
			}
		}
	}
	return types.PreprintID{Server: server, Value: doi}, nil
}

func (c *Client) fetch(ctx context.Context, doi string) (*work, error) {
	endpoint := c.baseURL + "/works/" + url.PathEscape(doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", doi, types.ErrPreprintIsUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", doi, types.ErrPreprintIsNotFound)
	case resp.StatusCode != http.StatusOK:
		slog.WarnContext(ctx, "preprint server error", "doi", doi, "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch %s: status %d: %w", doi, resp.StatusCode, types.ErrPreprintIsUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", doi, types.ErrPreprintIsUnavailable, err)
	}

	var parsed worksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", doi, types.ErrPreprintIsUnavailable, err)
	}
	return &parsed.Message, nil
}

func toMarkdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
