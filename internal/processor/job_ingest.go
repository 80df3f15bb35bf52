package processor

import (
	"context"
	"errors"
	"log"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/scraper"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

var ingestTracer = otel.Tracer("jobhunt-go/processor/ingest")

// JobIngestor 抓取→去重→入库的编排器。
// 单条落库失败只计数并记日志，不中断整批。
type JobIngestor struct {
	scraper JobScraper
	store   JobStore
	queries SearchQuerySource
	logger  *log.Logger
}

// NewJobIngestor 创建岗位入库编排器。queries为nil时不做查询词过滤。
func NewJobIngestor(jobScraper JobScraper, store JobStore, queries SearchQuerySource, logger *log.Logger) *JobIngestor {
	if logger == nil {
		logger = log.New(os.Stderr, "[JobIngestor] ", log.LstdFlags)
	}
	return &JobIngestor{
		scraper: jobScraper,
		store:   store,
		queries: queries,
		logger:  logger,
	}
}

// Run 执行一次完整的抓取入库，返回各阶段的统计。
// 搜索词每次运行时重新读取，记录按聚合器产出顺序处理，
// 重复ExternalID首次出现者胜出。
func (ji *JobIngestor) Run(ctx context.Context) *types.IngestStats {
	ctx, span := ingestTracer.Start(ctx, "job_ingest.run")
	defer span.End()

	scraped := ji.scraper.ScrapeAll(ctx, ji.searchQueries(ctx))
	unique := scraper.Deduplicate(scraped)

	stats := &types.IngestStats{
		Scraped: len(scraped),
		Unique:  len(unique),
	}

	for _, job := range unique {
		result, err := ji.store.UpsertScrapedJob(ctx, job)
		if err != nil {
			// 单条失败隔离：计数、记日志、继续下一条
			stats.Failed++
			ji.logger.Printf("岗位入库失败 external_id=%s: %v", job.ExternalID, err)
			continue
		}
		if result.Created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	span.SetAttributes(
		attribute.Int("ingest.scraped", stats.Scraped),
		attribute.Int("ingest.unique", stats.Unique),
		attribute.Int("ingest.created", stats.Created),
		attribute.Int("ingest.updated", stats.Updated),
		attribute.Int("ingest.failed", stats.Failed),
	)
	ji.logger.Printf("入库完成: 抓取=%d 去重后=%d 新建=%d 更新=%d 失败=%d",
		stats.Scraped, stats.Unique, stats.Created, stats.Updated, stats.Failed)
	return stats
}

// searchQueries 读取当前的搜索词偏好，读取失败时降级为不过滤
func (ji *JobIngestor) searchQueries(ctx context.Context) []string {
	if ji.queries == nil {
		return nil
	}
	queries, err := ji.queries.SearchQueries(ctx)
	if err != nil {
		ji.logger.Printf("读取搜索词偏好失败，本次抓取不过滤: %v", err)
		return nil
	}
	return queries
}

// PreferenceReader 读取默认用户及其求职偏好
type PreferenceReader interface {
	GetOrCreateDefaultUser(ctx context.Context, email, name string) (*models.User, error)
	GetPreferencesByUser(ctx context.Context, userID string) (*models.UserPreferences, error)
}

// PreferenceQuerySource 把默认用户偏好中的search_queries作为抓取搜索词。
// 未设置偏好视为不过滤。
type PreferenceQuerySource struct {
	store PreferenceReader
}

// NewPreferenceQuerySource 创建基于用户偏好的搜索词来源
func NewPreferenceQuerySource(store PreferenceReader) *PreferenceQuerySource {
	return &PreferenceQuerySource{store: store}
}

// SearchQueries 实现SearchQuerySource接口
func (s *PreferenceQuerySource) SearchQueries(ctx context.Context) ([]string, error) {
	user, err := s.store.GetOrCreateDefaultUser(ctx, constants.DefaultUserEmail, constants.DefaultUserName)
	if err != nil {
		return nil, err
	}
	prefs, err := s.store.GetPreferencesByUser(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return models.JSONToStrings(prefs.SearchQueriesJSON), nil
}
