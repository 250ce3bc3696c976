package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type ItemResponse struct {
	Items   []Item
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

type Item interface{}

// GetItems makes GET request to HeadHunter API and return items from at most maxPages pages.
// maxPages <= 0 means every page.
func (c *Client) GetItems(ctx context.Context, url string, q url.Values, maxPages int) ([]Item, error) {
	var items []Item

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	// Additional headers. For GET requests only
	req.Header.Set("Content-Type", contentType)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetchPage(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from HH.ru", zap.Int("pages", response.Pages), zap.Int("max items per page", response.PerPage))

	items = append(items, response.Items...)

	for fetched := 1; response.Page < (response.Pages - 1); fetched++ {
		if maxPages > 0 && fetched >= maxPages {
			c.logger.Debug("page limit reached", zap.Int("pages", fetched))
			break
		}

		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		response, err = c.fetchPage(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *Client) fetchPage(req *http.Request) (*ItemResponse, error) {
	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseItemResponse(resp)
}

func parseItemResponse(resp *http.Response) (*ItemResponse, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	body, closeBody, err := decodedBody(resp)
	if err != nil {
		return nil, err
	}
	defer closeBody()

	var response *ItemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}
	if response == nil {
		return &ItemResponse{}, nil
	}

	return response, nil
}

func decodedBody(resp *http.Response) (io.Reader, func(), error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp.Body, func() {}, nil
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return gz, func() { gz.Close() }, nil
}

// request waits for the rate limiter and repeats requests rejected with 429.
func (c *Client) request(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.Int("attempt", attempt))
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt == maxAttempts {
			return resp, nil
		}

		resp.Body.Close()
		c.logger.Warn("hh.ru rate limit hit, retrying", zap.Int("attempt", attempt), zap.Duration("delay", c.RetryDelay))
		if err := utils.WaitFor(ctx, c.RetryDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *Client) getJSON(ctx context.Context, url string, q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader, closeBody, err := decodedBody(resp)
	if err != nil {
		return err
	}
	defer closeBody()

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

// addPage adds page parameter to request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	return req
}
