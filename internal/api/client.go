package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Sroberts03/pickup-sub000/internal/models"
)

const defaultTimeout = 10 * time.Second

// Client is the REST collaborator: history pages, member lists,
// profile lookups, and read-marker persistence. It satisfies the
// fetcher interfaces declared where they are consumed
// (stream.ProfileFetcher, readmarker.MarkerAPI,
// unread.StatusFetcher).
type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
	log     zerolog.Logger
}

func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  defaultTimeout,
			WriteTimeout: defaultTimeout,
		},
		baseURL: baseURL,
		token:   token,
		timeout: defaultTimeout,
		log:     log,
	}
}

// do runs one JSON round-trip and decodes a 200 body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+c.token)

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if out != nil && status == fasthttp.StatusOK {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return status, fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return status, nil
}

// FetchGroupMessages fetches the history page for a group.
func (c *Client) FetchGroupMessages(ctx context.Context, groupID uint) ([]models.Message, error) {
	var page struct {
		Messages []models.Message `json:"messages"`
		Count    int              `json:"count"`
	}

	status, err := c.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/api/groups/%d/messages", groupID), nil, &page)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch group %d messages: status %d", groupID, status)
	}
	return page.Messages, nil
}

// FetchGroupMembers fetches the member profiles of a group.
func (c *Client) FetchGroupMembers(ctx context.Context, groupID uint) ([]models.Profile, error) {
	var body struct {
		Members []models.Profile `json:"members"`
	}

	status, err := c.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/api/groups/%d/members", groupID), nil, &body)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch group %d members: status %d", groupID, status)
	}
	return body.Members, nil
}

// FetchUser resolves a user ID to a profile. An unknown user is
// (nil, nil), not an error.
func (c *Client) FetchUser(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile

	status, err := c.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil, &profile)
	if err != nil {
		return nil, err
	}
	switch status {
	case fasthttp.StatusOK:
		return &profile, nil
	case fasthttp.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("fetch user %d: status %d", userID, status)
	}
}

// FetchLastRead fetches the caller's read marker for a group. 0
// means nothing read yet; a group with no marker row is also 0.
func (c *Client) FetchLastRead(ctx context.Context, groupID uint) (uint, error) {
	var state models.GroupReadState

	status, err := c.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/api/groups/%d/read-state", groupID), nil, &state)
	if err != nil {
		return 0, err
	}
	switch status {
	case fasthttp.StatusOK:
		return state.LastReadMessageID, nil
	case fasthttp.StatusNotFound:
		return 0, nil
	default:
		return 0, fmt.Errorf("fetch group %d read state: status %d", groupID, status)
	}
}

// ReportLastRead persists the caller's read marker for a group. The
// server applies it monotonically.
func (c *Client) ReportLastRead(ctx context.Context, groupID, messageID uint) error {
	body := map[string]uint{"last_read_message_id": messageID}

	status, err := c.do(ctx, fasthttp.MethodPost, fmt.Sprintf("/api/groups/%d/read", groupID), body, nil)
	if err != nil {
		return err
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return fmt.Errorf("report group %d read marker: status %d", groupID, status)
	}
	return nil
}

// FetchUnreadStatus asks whether a group has unread messages for the
// caller.
func (c *Client) FetchUnreadStatus(ctx context.Context, groupID uint) (bool, error) {
	var body struct {
		Unread bool `json:"unread"`
	}

	status, err := c.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/api/groups/%d/unread", groupID), nil, &body)
	if err != nil {
		return false, err
	}
	if status != fasthttp.StatusOK {
		return false, fmt.Errorf("fetch group %d unread status: status %d", groupID, status)
	}
	return body.Unread, nil
}
