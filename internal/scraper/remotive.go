package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"
)

const defaultRemotiveURL = "https://remotive.com/api/remote-jobs"

// remotiveResponse Remotive API的响应结构
type remotiveResponse struct {
	JobCount int            `json:"job-count"`
	Jobs     []remotiveItem `json:"jobs"`
}

type remotiveItem struct {
	ID                        int64    `json:"id"`
	URL                       string   `json:"url"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	Tags                      []string `json:"tags"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	Salary                    string   `json:"salary"`
	Description               string   `json:"description"`
	PublicationDate           string   `json:"publication_date"`
}

// RemotiveAdapter 抓取Remotive（远程岗位聚合板）。
// 该API只返回远程岗位，location_type恒为remote。
type RemotiveAdapter struct {
	baseURL    string
	httpClient *http.Client
	maxJobs    int
}

// RemotiveOption 用于配置RemotiveAdapter
type RemotiveOption func(*RemotiveAdapter)

// WithRemotiveURL 覆盖API地址（测试用）
func WithRemotiveURL(url string) RemotiveOption {
	return func(a *RemotiveAdapter) {
		if url != "" {
			a.baseURL = url
		}
	}
}

// WithRemotiveTimeout 设置HTTP超时
func WithRemotiveTimeout(timeout time.Duration) RemotiveOption {
	return func(a *RemotiveAdapter) {
		if timeout > 0 {
			a.httpClient.Timeout = timeout
		}
	}
}

// NewRemotiveAdapter 创建Remotive适配器
func NewRemotiveAdapter(opts ...RemotiveOption) *RemotiveAdapter {
	a := &RemotiveAdapter{
		baseURL:    defaultRemotiveURL,
		httpClient: &http.Client{Timeout: constants.SourceFetchTimeout},
		maxJobs:    constants.MaxJobsPerSource,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name 实现SourceAdapter接口
func (a *RemotiveAdapter) Name() string {
	return "Remotive"
}

// Fetch 实现SourceAdapter接口
func (a *RemotiveAdapter) Fetch(ctx context.Context, queries []string) ([]types.ScrapedJob, error) {
	ctx, span := scraperTracer.Start(ctx, "scraper.fetch.remotive")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建Remotive请求失败: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("请求Remotive失败: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeScraper)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("Remotive返回非200状态: %s", resp.Status)
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return nil, err
	}

	var payload remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("解析Remotive响应失败: %w", err)
	}

	items := payload.Jobs
	if len(items) > a.maxJobs {
		items = items[:a.maxJobs]
	}

	jobs := make([]types.ScrapedJob, 0, len(items))
	for _, item := range items {
		salaryMin, salaryMax := parseSalaryRange(item.Salary)

		location := item.CandidateRequiredLocation
		if location == "" {
			location = "Remote"
		}

		postedAt := time.Now()
		if item.PublicationDate != "" {
			if t, err := parseRemotiveTime(item.PublicationDate); err == nil {
				postedAt = t
			}
		}

		jobs = append(jobs, types.ScrapedJob{
			Title:        item.Title,
			Company:      item.CompanyName,
			Description:  item.Description,
			Requirements: item.Tags,
			Location:     location,
			LocationType: types.LocationRemote,
			SalaryMin:    salaryMin,
			SalaryMax:    salaryMax,
			SourceURL:    item.URL,
			SourceBoard:  "Remotive",
			ExternalID:   fmt.Sprintf("remotive-%d", item.ID),
			PostedAt:     postedAt,
		})
	}

	return filterByQueries(jobs, queries), nil
}

// parseRemotiveTime Remotive的publication_date形如"2024-01-15T10:30:00"，无时区后缀
func parseRemotiveTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// parseSalaryRange 解析"60000-80000"或"$60k - $80k"之类的自由文本薪资区间。
// 解析不出数字的部分返回nil。
func parseSalaryRange(salary string) (*int, *int) {
	if strings.TrimSpace(salary) == "" {
		return nil, nil
	}
	parts := strings.SplitN(salary, "-", 2)
	min := parseSalaryBound(parts[0])
	var max *int
	if len(parts) == 2 {
		max = parseSalaryBound(parts[1])
	}
	return min, max
}

// parseSalaryBound 从文本中抽取第一个连续数字串，支持"$60,000"和"60k"写法
func parseSalaryBound(s string) *int {
	s = strings.TrimSpace(s)
	var digits strings.Builder
	seen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits.WriteByte(c)
			seen = true
			continue
		}
		if c == ',' && seen {
			continue
		}
		if (c == 'k' || c == 'K') && seen {
			digits.WriteString("000")
			break
		}
		if seen {
			break
		}
	}
	if !seen {
		return nil
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return nil
	}
	return &n
}
