// Package scraper 从第三方招聘板抓取岗位并归一化为统一结构。
// 每个来源实现SourceAdapter，Aggregator负责并发抓取和容错汇总。
package scraper

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"
)

var scraperTracer = otel.Tracer("jobhunt-go/scraper")

// SourceAdapter 一个招聘板来源。Fetch返回归一化后的岗位列表，
// queries是本次抓取使用的查询词（客户端过滤，空列表不过滤）。
// 失败时返回错误，由Aggregator负责降级为空贡献。
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, queries []string) ([]types.ScrapedJob, error)
}

// Aggregator 并发调度所有已注册的来源适配器
type Aggregator struct {
	adapters []SourceAdapter
	logger   *log.Logger
}

// NewAggregator 创建聚合器，adapters的注册顺序决定结果的拼接顺序
func NewAggregator(adapters []SourceAdapter, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(os.Stderr, "[Scraper] ", log.LstdFlags)
	}
	return &Aggregator{adapters: adapters, logger: logger}
}

// ScrapeAll 并发抓取所有来源并按注册顺序拼接结果。
// queries是本次抓取的查询词，每次调用重新传入。
// 单个来源失败只记日志并贡献空列表，本方法永远不返回错误。
func (a *Aggregator) ScrapeAll(ctx context.Context, queries []string) []types.ScrapedJob {
	ctx, span := scraperTracer.Start(ctx, "scraper.scrape_all")
	defer span.End()
	span.SetAttributes(
		attribute.Int("scraper.source_count", len(a.adapters)),
		attribute.StringSlice("scraper.queries", queries),
	)

	a.logger.Printf("开始从 %d 个来源抓取岗位", len(a.adapters))

	results := make([][]types.ScrapedJob, len(a.adapters))
	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(idx int, src SourceAdapter) {
			defer wg.Done()
			jobs, err := src.Fetch(ctx, queries)
			if err != nil {
				// trace.Span的方法允许并发调用
				tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeScraper,
					attribute.String("scraper.source", src.Name()))
				a.logger.Printf("来源 %s 抓取失败: %v", src.Name(), err)
				return
			}
			a.logger.Printf("来源 %s 抓取成功: %d 条", src.Name(), len(jobs))
			results[idx] = jobs
		}(i, adapter)
	}
	wg.Wait()

	var all []types.ScrapedJob
	for _, jobs := range results {
		all = append(all, jobs...)
	}
	span.SetAttributes(attribute.Int("scraper.total", len(all)))
	a.logger.Printf("抓取完成，共 %d 条", len(all))
	return all
}

// Deduplicate 按ExternalID去重，保留首次出现的记录，保持输入顺序。
// 纯函数，O(n)。
func Deduplicate(jobs []types.ScrapedJob) []types.ScrapedJob {
	seen := make(map[string]struct{}, len(jobs))
	result := make([]types.ScrapedJob, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := seen[job.ExternalID]; ok {
			continue
		}
		seen[job.ExternalID] = struct{}{}
		result = append(result, job)
	}
	return result
}

// matchesQueries 检查岗位的标题或描述是否命中任一查询词（大小写不敏感）。
// 查询列表为空时视为全部命中。两个招聘板的API都不支持服务端检索，
// 所以查询词只能在客户端过滤。
func matchesQueries(job types.ScrapedJob, queries []string) bool {
	if len(queries) == 0 {
		return true
	}
	title := strings.ToLower(job.Title)
	description := strings.ToLower(job.Description)
	for _, q := range queries {
		q = strings.ToLower(strings.TrimSpace(q))
		if q == "" {
			continue
		}
		if strings.Contains(title, q) || strings.Contains(description, q) {
			return true
		}
	}
	return false
}

// filterByQueries 过滤出命中查询词的岗位
func filterByQueries(jobs []types.ScrapedJob, queries []string) []types.ScrapedJob {
	if len(queries) == 0 {
		return jobs
	}
	filtered := make([]types.ScrapedJob, 0, len(jobs))
	for _, job := range jobs {
		if matchesQueries(job, queries) {
			filtered = append(filtered, job)
		}
	}
	return filtered
}
