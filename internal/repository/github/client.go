// Package github implements the remote file client: a resty-backed wrapper
// around the GitHub contents API that treats one Base64-encoded JSON file as
// the application database, with a blob SHA acting as the revision token for
// optimistic concurrency.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"stockbook/internal/domain/models"
)

const (
	defaultBaseURL = "https://api.github.com"
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	backoffBase    = time.Second
	jitterCeiling  = time.Second
)

// ClientConfig carries the coordinates and credentials of the backing
// repository.
type ClientConfig struct {
	Owner   string
	Repo    string
	Token   string
	BaseURL string
}

// Client talks to the GitHub contents API for a single repository. All public
// methods return *APIError on failure and never panic.
type Client struct {
	http   *resty.Client
	owner  string
	repo   string
	logger *zap.Logger

	// Injectable for tests.
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewClient builds a client for the configured repository.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(base, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token)).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetTimeout(requestTimeout)

	return &Client{
		http:   httpClient,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		logger: logger,
		sleep:  time.Sleep,
		jitter: func() time.Duration { return time.Duration(rand.Int63n(int64(jitterCeiling))) },
	}
}

// RepoInfo summarizes the repository check performed at connect time.
type RepoInfo struct {
	Name           string `json:"name"`
	FullName       string `json:"fullName"`
	Private        bool   `json:"private"`
	HasWriteAccess bool   `json:"hasWriteAccess"`
}

// FetchResult is the outcome of reading the remote document.
type FetchResult struct {
	Document  *models.Document
	SHA       string
	IsNewFile bool
	WasEmpty  bool
}

// CommitInfo describes a successful write.
type CommitInfo struct {
	SHA       string `json:"sha"`
	CommitSHA string `json:"commitSha"`
	Message   string `json:"message"`
	URL       string `json:"url"`
}

// RateLimit mirrors the core section of GitHub's rate-limit resource.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type ghErrorBody struct {
	Message string `json:"message"`
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		Message string `json:"message"`
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

// TestConnection fetches repository metadata and reports whether the token
// grants write access.
func (c *Client) TestConnection(ctx context.Context) (*RepoInfo, error) {
	var body struct {
		Name        string `json:"name"`
		FullName    string `json:"full_name"`
		Private     bool   `json:"private"`
		Permissions struct {
			Admin bool `json:"admin"`
			Push  bool `json:"push"`
		} `json:"permissions"`
	}

	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&body).
			Get(fmt.Sprintf("/repos/%s/%s", c.owner, c.repo))
	})
	if err != nil {
		return nil, err
	}

	return &RepoInfo{
		Name:           body.Name,
		FullName:       body.FullName,
		Private:        body.Private,
		HasWriteAccess: body.Permissions.Push || body.Permissions.Admin,
	}, nil
}

// FetchData reads and decodes the remote document.
//
// A missing file is not an error: the caller gets a fresh empty document with
// IsNewFile set and no SHA. An existing but empty file likewise yields an
// empty document with WasEmpty set. Unparseable content is returned as a
// PARSE_ERROR carrying the current SHA so the caller can force-overwrite.
func (c *Client) FetchData(ctx context.Context, fileName string) (*FetchResult, error) {
	var body contentResponse

	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&body).
			Get(c.contentPath(fileName))
	})
	if err != nil {
		if TypeOf(err) == ErrNotFound {
			c.logger.Info("remote file missing, starting fresh", zap.String("file", fileName))
			return &FetchResult{Document: models.NewEmptyDocument(), IsNewFile: true}, nil
		}
		return nil, err
	}

	raw, decErr := decodeContent(body.Content)
	if decErr != nil {
		return nil, &APIError{Type: ErrParse, Message: fmt.Sprintf("decode %s: %v", fileName, decErr), SHA: body.SHA}
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		doc := models.NewEmptyDocument()
		return &FetchResult{Document: doc, SHA: body.SHA, WasEmpty: true}, nil
	}

	doc := &models.Document{}
	if jsonErr := json.Unmarshal(raw, doc); jsonErr != nil {
		return nil, &APIError{Type: ErrParse, Message: fmt.Sprintf("parse %s: %v", fileName, jsonErr), SHA: body.SHA}
	}
	doc.Normalize()

	return &FetchResult{Document: doc, SHA: body.SHA}, nil
}

// UpdateData writes the document back under the given commit message.
//
// The sha parameter is the compare-and-swap precondition: if the remote file
// has moved past it the write fails with CONFLICT_ERROR and the caller must
// decide how to proceed. With force set, the current remote SHA is fetched
// and used unconditionally, discarding whatever is there. An empty sha with
// force unset attempts a create.
func (c *Client) UpdateData(ctx context.Context, fileName string, doc *models.Document, commitMessage, sha string, force bool) (*CommitInfo, error) {
	if doc == nil {
		return nil, &APIError{Type: ErrValidation, Message: "document must not be nil"}
	}

	if force {
		current, err := c.fetchSHA(ctx, fileName)
		if err != nil {
			return nil, err
		}
		sha = current
	}

	doc.EnsureCollections()
	doc.Normalize()
	doc.Touch(time.Now())

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &APIError{Type: ErrParse, Message: fmt.Sprintf("encode document: %v", err)}
	}

	req := putRequest{
		Message: commitMessage,
		Content: base64.StdEncoding.EncodeToString(raw),
		SHA:     sha,
	}

	var body putResponse
	_, doErr := c.do(ctx, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&body).
			Put(c.contentPath(fileName))
	})
	if doErr != nil {
		// GitHub reports a stale SHA on the contents API as 409 or 422.
		if sha != "" && TypeOf(doErr) == ErrValidation {
			var apiErr *APIError
			errors.As(doErr, &apiErr)
			return nil, &APIError{Type: ErrConflict, Status: apiErr.Status, Message: apiErr.Message}
		}
		return nil, doErr
	}

	c.logger.Info("document saved",
		zap.String("file", fileName),
		zap.String("commit", body.Commit.SHA))

	return &CommitInfo{
		SHA:       body.Content.SHA,
		CommitSHA: body.Commit.SHA,
		Message:   body.Commit.Message,
		URL:       body.Commit.HTMLURL,
	}, nil
}

// CreateFile writes an initial document to a path that does not exist yet.
func (c *Client) CreateFile(ctx context.Context, fileName string, doc *models.Document, commitMessage string) (*CommitInfo, error) {
	if doc == nil {
		doc = models.NewEmptyDocument()
	}
	return c.UpdateData(ctx, fileName, doc, commitMessage, "", false)
}

// GetRateLimit reports the remaining core API quota.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimit, error) {
	var body struct {
		Resources struct {
			Core RateLimit `json:"core"`
		} `json:"resources"`
	}

	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&body).
			Get("/rate_limit")
	})
	if err != nil {
		return nil, err
	}
	return &body.Resources.Core, nil
}

func (c *Client) fetchSHA(ctx context.Context, fileName string) (string, error) {
	var body contentResponse
	_, err := c.do(ctx, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&body).
			Get(c.contentPath(fileName))
	})
	if err != nil {
		if TypeOf(err) == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return body.SHA, nil
}

func (c *Client) contentPath(fileName string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, url.PathEscape(fileName))
}

// do runs one request function under the bounded retry policy: up to three
// attempts, exponential backoff with jitter, and no retry on statuses that
// cannot succeed by repetition.
func (c *Client) do(ctx context.Context, fn func() (*resty.Response, error)) (*resty.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := fn()
		if err != nil {
			lastErr = classifyTransport(err)
		} else if resp.IsError() {
			lastErr = classifyStatus(resp.StatusCode(), upstreamMessage(resp))
			if !retryableStatus(resp.StatusCode()) {
				return resp, lastErr
			}
		} else {
			return resp, nil
		}

		if attempt < maxAttempts {
			wait := backoffBase*time.Duration(1<<(attempt-1)) + c.jitter()
			c.logger.Warn("remote request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			c.sleep(wait)
		}
	}

	return nil, lastErr
}

func classifyTransport(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &APIError{Type: ErrTimeout, Message: err.Error()}
	}
	return &APIError{Type: ErrNetwork, Message: err.Error()}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}

func upstreamMessage(resp *resty.Response) string {
	var body ghErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return resp.Status()
}

// decodeContent handles GitHub's line-wrapped Base64 content blocks.
func decodeContent(content string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, content)
	if cleaned == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(cleaned)
}
