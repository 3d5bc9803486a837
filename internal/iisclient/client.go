package iisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/semaphore"

	"github.com/semantic-hallucinations/uma-etl-iis-loader/internal/config"
)

// ErrNotFound — сущность отсутствует на стороне API; не ретраится.
var ErrNotFound = errors.New("сущность не найдена в API")

const (
	requestTimeout   = 120 * time.Second
	retryInitial     = 2 * time.Second
	retryMax         = 20 * time.Second
	maxRetries       = 4 // всего 5 попыток
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client — клиент API IIS. Количество одновременных запросов ограничено
// пулом разрешений, каждый запрос ретраится с экспоненциальной задержкой.
// При заданном REDIS_ADDR документы расписаний кэшируются в Redis.
type Client struct {
	baseURL  string
	http     *http.Client
	sem      *semaphore.Weighted
	cache    *redis.Client
	cacheTTL time.Duration
}

func New(cfg config.Config) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		http:     &http.Client{Timeout: requestTimeout},
		sem:      semaphore.NewWeighted(int64(cfg.ConcurrencyLimit)),
		cacheTTL: cfg.CacheTTL,
	}
	if cfg.RedisAddr != "" {
		c.cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return c
}

// get выполняет GET с ретраями. Сетевые ошибки, таймауты, 5xx и 429
// ретраятся; прочие 4xx — постоянные ошибки.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	operation := func() ([]byte, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, backoff.Permanent(err)
		}
		defer c.sem.Release(1)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, reqURL))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("API вернул статус %d для %s", resp.StatusCode, reqURL)
		default:
			return nil, backoff.Permanent(fmt.Errorf("API вернул статус %d для %s", resp.StatusCode, reqURL))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitial
	b.MaxInterval = retryMax
	b.MaxElapsedTime = 0

	return backoff.RetryWithData(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) Faculties(ctx context.Context) ([]Faculty, error) {
	var res []Faculty
	return res, c.getJSON(ctx, "/faculties", &res)
}

func (c *Client) Departments(ctx context.Context) ([]Department, error) {
	var res []Department
	return res, c.getJSON(ctx, "/departments", &res)
}

func (c *Client) Specialities(ctx context.Context) ([]Speciality, error) {
	var res []Speciality
	return res, c.getJSON(ctx, "/specialities", &res)
}

func (c *Client) StudentGroups(ctx context.Context) ([]StudentGroup, error) {
	var res []StudentGroup
	return res, c.getJSON(ctx, "/student-groups", &res)
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var res []Employee
	return res, c.getJSON(ctx, "/employees/all", &res)
}

func (c *Client) Auditories(ctx context.Context) ([]Auditory, error) {
	var res []Auditory
	return res, c.getJSON(ctx, "/auditories", &res)
}

// CurrentWeek возвращает номер текущей учебной недели.
func (c *Client) CurrentWeek(ctx context.Context) (int, error) {
	var week int
	return week, c.getJSON(ctx, "/schedule/current-week", &week)
}

// GroupSchedule возвращает документ расписания группы по её названию.
// Пустой ответ даёт (nil, nil).
func (c *Client) GroupSchedule(ctx context.Context, groupName string) (*ScheduleDocument, error) {
	params := url.Values{"studentGroup": {groupName}}
	raw, err := c.cachedGet(ctx, "schedule:group:"+groupName, "/schedule", params)
	if err != nil {
		return nil, err
	}
	return ParseScheduleDocument(raw)
}

// EmployeeSchedule возвращает документ расписания преподавателя по urlId.
func (c *Client) EmployeeSchedule(ctx context.Context, urlID string) (*ScheduleDocument, error) {
	raw, err := c.cachedGet(ctx, "schedule:employee:"+urlID, "/employees/schedule/"+urlID, nil)
	if err != nil {
		return nil, err
	}
	return ParseScheduleDocument(raw)
}

func (c *Client) cachedGet(ctx context.Context, key, endpoint string, params url.Values) ([]byte, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return []byte(cached), nil
		}
	}
	raw, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if c.cache != nil && len(raw) > 0 {
		c.cache.Set(ctx, key, string(raw), c.cacheTTL)
	}
	return raw, nil
}
