package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"
)

const defaultArbeitnowURL = "https://www.arbeitnow.com/api/job-board-api"

// arbeitnowResponse Arbeitnow API的响应结构
type arbeitnowResponse struct {
	Data []arbeitnowItem `json:"data"`
}

type arbeitnowItem struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"` // unix秒
}

// ArbeitnowAdapter 抓取Arbeitnow（欧洲招聘板）。
// API不提供薪资字段；remote标志决定location_type。
type ArbeitnowAdapter struct {
	baseURL    string
	httpClient *http.Client
	maxJobs    int
}

// ArbeitnowOption 用于配置ArbeitnowAdapter
type ArbeitnowOption func(*ArbeitnowAdapter)

// WithArbeitnowURL 覆盖API地址（测试用）
func WithArbeitnowURL(url string) ArbeitnowOption {
	return func(a *ArbeitnowAdapter) {
		if url != "" {
			a.baseURL = url
		}
	}
}

// WithArbeitnowTimeout 设置HTTP超时
func WithArbeitnowTimeout(timeout time.Duration) ArbeitnowOption {
	return func(a *ArbeitnowAdapter) {
		if timeout > 0 {
			a.httpClient.Timeout = timeout
		}
	}
}

// NewArbeitnowAdapter 创建Arbeitnow适配器
func NewArbeitnowAdapter(opts ...ArbeitnowOption) *ArbeitnowAdapter {
	a := &ArbeitnowAdapter{
		baseURL:    defaultArbeitnowURL,
		httpClient: &http.Client{Timeout: constants.SourceFetchTimeout},
		maxJobs:    constants.MaxJobsPerSource,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name 实现SourceAdapter接口
func (a *ArbeitnowAdapter) Name() string {
	return "Arbeitnow"
}

// Fetch 实现SourceAdapter接口
func (a *ArbeitnowAdapter) Fetch(ctx context.Context, queries []string) ([]types.ScrapedJob, error) {
	ctx, span := scraperTracer.Start(ctx, "scraper.fetch.arbeitnow")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建Arbeitnow请求失败: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("请求Arbeitnow失败: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeScraper)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("Arbeitnow返回非200状态: %s", resp.Status)
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return nil, err
	}

	var payload arbeitnowResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("解析Arbeitnow响应失败: %w", err)
	}

	items := payload.Data
	if len(items) > a.maxJobs {
		items = items[:a.maxJobs]
	}

	jobs := make([]types.ScrapedJob, 0, len(items))
	for _, item := range items {
		locationType := types.LocationOnsite
		if item.Remote {
			locationType = types.LocationRemote
		}

		location := item.Location
		if location == "" {
			location = "Remote"
		}

		postedAt := time.Now()
		if item.CreatedAt > 0 {
			postedAt = time.Unix(item.CreatedAt, 0)
		}

		jobs = append(jobs, types.ScrapedJob{
			Title:        item.Title,
			Company:      item.CompanyName,
			Description:  item.Description,
			Requirements: item.Tags,
			Location:     location,
			LocationType: locationType,
			SourceURL:    item.URL,
			SourceBoard:  "Arbeitnow",
			ExternalID:   "arbeitnow-" + item.Slug,
			PostedAt:     postedAt,
		})
	}

	return filterByQueries(jobs, queries), nil
}
