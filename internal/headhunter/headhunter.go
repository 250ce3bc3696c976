package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL      = "https://api.hh.ru"
	mineResumID = "mine"
	userAgent   = "spigell/hh-interviewer (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"

	defaultRetryDelay = 2 * time.Second
	maxAttempts       = 3
)

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// RetryDelay is the pause before a request rejected with 429 is repeated.
	RetryDelay time.Duration
}

// New creates a client. The token is optional: vacancies are public, resumes are not.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
		UserAgent:  userAgent,
		RetryDelay: defaultRetryDelay,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var vacancy Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s/vacancies/%s", c.APIURL, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	return &vacancy, nil
}

func (c *Client) GetMineResumes(ctx context.Context) (*Resumes, error) {
	return c.getResumes(ctx, mineResumID)
}
