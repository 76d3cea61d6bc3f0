package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/models"
)

// ErrUnauthorized indicates the platform rejected the access token. Callers
// surface it immediately instead of degrading to partial results.
var ErrUnauthorized = errors.New("platform rejected the access token")

// Client is a client for the platform Graph API. Reads go through a
// retrying client with backoff; state-changing calls use a plain client and
// are never retried, since the API offers no idempotency keys for them.
type Client struct {
	baseURL     string
	readClient  *http.Client
	writeClient *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Graph API client.
func NewClient(baseURL string, timeout time.Duration, readRetries int, logger *zap.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = readRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	readClient := rc.StandardClient()
	readClient.Timeout = timeout

	return &Client{
		baseURL:     baseURL,
		readClient:  readClient,
		writeClient: &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type linkedAccount struct {
	ID string `json:"id"`
}

type page struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	InstagramBusinessAccount *linkedAccount `json:"instagram_business_account"`
}

type accountsResponse struct {
	Data  []page    `json:"data"`
	Error *apiError `json:"error"`
}

type rawComment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
	Hidden   bool   `json:"hidden"`
}

type mediaItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Comments  *struct {
		Data []rawComment `json:"data"`
	} `json:"comments"`
}

type mediaResponse struct {
	Data  []mediaItem `json:"data"`
	Error *apiError   `json:"error"`
}

type mutationResponse struct {
	Success *bool     `json:"success"`
	Deleted *bool     `json:"deleted"`
	ID      string    `json:"id"`
	Error   *apiError `json:"error"`
}

// tokenExpiredCode is the Graph API error code for an invalid or expired
// access token.
const tokenExpiredCode = 190

func unauthorized(status int, apiErr *apiError) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return apiErr != nil && apiErr.Code == tokenExpiredCode
}

// ListContentAccounts returns the ids of the content-publishing accounts
// linked to the pages this token can manage. Pages without a linked
// content account are skipped; a token with no linked accounts yields an
// empty list, which is a valid result and not an error.
func (c *Client) ListContentAccounts(ctx context.Context, token string) ([]string, error) {
	u := fmt.Sprintf("%s/me/accounts?fields=id,name,instagram_business_account&access_token=%s",
		c.baseURL, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create accounts request: %w", err)
	}

	resp, err := c.readClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer resp.Body.Close()

	var body accountsResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil {
		return nil, fmt.Errorf("failed to decode accounts response: %w", decErr)
	}

	if unauthorized(resp.StatusCode, body.Error) {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("accounts request returned status %d", resp.StatusCode)
	}

	var ids []string
	for _, p := range body.Data {
		if p.InstagramBusinessAccount != nil && p.InstagramBusinessAccount.ID != "" {
			ids = append(ids, p.InstagramBusinessAccount.ID)
		}
	}
	return ids, nil
}

// ListMediaComments fetches all media for one content account and flattens
// their nested comments into a single sequence, stamping each comment with
// the media id and timestamp it belongs to.
func (c *Client) ListMediaComments(ctx context.Context, accountID, token string) ([]models.Comment, error) {
	u := fmt.Sprintf("%s/%s/media?fields=id,timestamp,comments{id,text,username,hidden}&access_token=%s",
		c.baseURL, url.PathEscape(accountID), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media request: %w", err)
	}

	resp, err := c.readClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media for account %s: %w", accountID, err)
	}
	defer resp.Body.Close()

	var body mediaResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil {
		return nil, fmt.Errorf("failed to decode media response: %w", decErr)
	}

	if unauthorized(resp.StatusCode, body.Error) {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media request returned status %d", resp.StatusCode)
	}

	var comments []models.Comment
	for _, media := range body.Data {
		if media.Comments == nil {
			continue
		}
		for _, rc := range media.Comments.Data {
			comments = append(comments, models.Comment{
				ID:             rc.ID,
				MediaID:        media.ID,
				MediaTimestamp: media.Timestamp,
				Text:           rc.Text,
				Username:       rc.Username,
				Hidden:         rc.Hidden,
			})
		}
	}
	return comments, nil
}

// SetCommentHidden hides or unhides one comment. The API is permissive
// about status codes, so success is recognized only by an explicit
// success flag or an echoed comment id in the response body.
func (c *Client) SetCommentHidden(ctx context.Context, commentID string, hidden bool, token string) error {
	u := fmt.Sprintf("%s/%s?hide=%t&access_token=%s",
		c.baseURL, url.PathEscape(commentID), hidden, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create hide request: %w", err)
	}

	resp, err := c.writeClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update hidden state for comment %s: %w", commentID, err)
	}
	defer resp.Body.Close()

	return c.checkMutation(resp, commentID, false)
}

// DeleteComment permanently removes one comment from the platform.
func (c *Client) DeleteComment(ctx context.Context, commentID, token string) error {
	u := fmt.Sprintf("%s/%s?access_token=%s",
		c.baseURL, url.PathEscape(commentID), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.writeClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", commentID, err)
	}
	defer resp.Body.Close()

	return c.checkMutation(resp, commentID, true)
}

func (c *Client) checkMutation(resp *http.Response, commentID string, acceptDeleted bool) error {
	var body mutationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode mutation response for comment %s: %w", commentID, err)
	}

	if unauthorized(resp.StatusCode, body.Error) {
		return ErrUnauthorized
	}
	if body.Error != nil {
		return fmt.Errorf("platform error for comment %s: %s (code %d)", commentID, body.Error.Message, body.Error.Code)
	}

	if body.Success != nil && *body.Success {
		return nil
	}
	if body.ID == commentID && commentID != "" {
		return nil
	}
	if acceptDeleted && body.Deleted != nil && *body.Deleted {
		return nil
	}

	c.logger.Warn("Platform mutation response carried no confirmation",
		zap.String("comment_id", commentID),
		zap.Int("status", resp.StatusCode))
	return fmt.Errorf("platform did not confirm mutation for comment %s", commentID)
}
