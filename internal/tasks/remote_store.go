package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoteStore talks to a collaborator serving the routes from RegisterRoutes.
// It caches nothing: every List is a fresh GET.
type RemoteStore struct {
	base    *url.URL
	client  *http.Client
	apiKey  string
	timeout time.Duration
}

type RemoteOption func(*RemoteStore)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) { s.client = c }
}

// WithAPIKey sends the key as X-API-Key on every request.
func WithAPIKey(key string) RemoteOption {
	return func(s *RemoteStore) { s.apiKey = key }
}

// WithTimeout bounds each call. Zero leaves calls bounded only by the caller's context.
func WithTimeout(d time.Duration) RemoteOption {
	return func(s *RemoteStore) { s.timeout = d }
}

func NewRemoteStore(baseURL string, opts ...RemoteOption) (*RemoteStore, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote url must be http or https, got %q", baseURL)
	}
	s := &RemoteStore{
		base:   u,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	// /add_task answers with a redirect to the page; the redirect itself is the success signal
	c := *s.client
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	s.client = &c
	return s, nil
}

func (s *RemoteStore) List(ctx context.Context, q Query) ([]Task, error) {
	status := q.Status
	if status == "" {
		status = StatusAll
	}
	category := q.Category
	if category == "" {
		category = AllCategories
	}
	params := url.Values{}
	params.Set("filter", string(status))
	params.Set("category", category)

	resp, err := s.do(ctx, http.MethodGet, "/api/tasks?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp)
	}
	var out []Task
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode tasks: %v", ErrRemote, err)
	}
	if out == nil {
		out = []Task{}
	}
	return out, nil
}

// Categories always returns an empty index; the collaborator exposes no
// category listing.
func (s *RemoteStore) Categories(context.Context) ([]string, error) {
	return nil, nil
}

func (s *RemoteStore) Add(ctx context.Context, d Draft) error {
	if d.Content == "" {
		return ErrContentRequired
	}
	form := url.Values{}
	form.Set("task_content", d.Content)
	if d.Priority != "" {
		p, err := ParsePriority(string(d.Priority))
		if err != nil {
			return err
		}
		form.Set("priority", string(p))
	}
	if d.Category != "" {
		form.Set("category", d.Category)
	}

	resp, err := s.do(ctx, http.MethodPost, "/add_task", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return rejection(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *RemoteStore) Toggle(ctx context.Context, id int64) error {
	return s.post(ctx, "/toggle_task/"+strconv.FormatInt(id, 10), nil)
}

func (s *RemoteStore) Remove(ctx context.Context, id int64) error {
	return s.post(ctx, "/delete_task/"+strconv.FormatInt(id, 10), nil)
}

func (s *RemoteStore) SetPriority(ctx context.Context, id int64, p Priority) error {
	p, err := ParsePriority(string(p))
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("priority", string(p))
	return s.post(ctx, "/update_task_priority/"+strconv.FormatInt(id, 10), form)
}

func (s *RemoteStore) SetCategory(ctx context.Context, id int64, category string) error {
	form := url.Values{}
	form.Set("category", category)
	return s.post(ctx, "/update_task_category/"+strconv.FormatInt(id, 10), form)
}

func (s *RemoteStore) post(ctx context.Context, path string, form url.Values) error {
	resp, err := s.do(ctx, http.MethodPost, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrRemote, ErrTaskNotFound)
	}
	if resp.StatusCode >= 300 {
		return rejection(resp)
	}
	var sr successResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRemote, err)
	}
	if !sr.Success {
		return fmt.Errorf("%w: %s %s reported failure", ErrRemote, http.MethodPost, path)
	}
	return nil
}

func (s *RemoteStore) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		resp, err := s.send(ctx, method, path, form)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return s.send(ctx, method, path, form)
}

func (s *RemoteStore) send(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// rejection reads the error code of a failed call, keeping a rejected
// priority recognizable as ErrInvalidPriority.
func rejection(resp *http.Response) error {
	if resp.StatusCode == http.StatusBadRequest {
		var sr successResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&sr); err == nil && sr.Error == "invalid_priority" {
			return fmt.Errorf("%w: %w", ErrRemote, ErrInvalidPriority)
		}
	}
	return statusErr(resp)
}

func statusErr(resp *http.Response) error {
	return fmt.Errorf("%w: %s %s: status %d", ErrRemote, resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
}
