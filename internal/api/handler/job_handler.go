package handler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/storage"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// JobIngestRunner 一次完整的抓取入库
type JobIngestRunner interface {
	Run(ctx context.Context) *types.IngestStats
}

// JobSearcher 岗位查询接口
type JobSearcher interface {
	SearchJobs(ctx context.Context, filter storage.JobSearchFilter) ([]models.Job, int64, error)
	GetJobByID(ctx context.Context, jobID string) (*models.Job, error)
}

// ScrapeLocker 抓取互斥锁（Redis），为nil时不做并发保护
type ScrapeLocker interface {
	AcquireLock(ctx context.Context, lockKey string, lockValue string, expiration time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

// JobHandler 处理岗位相关请求
type JobHandler struct {
	search   JobSearcher
	ingestor JobIngestRunner
	locker   ScrapeLocker
	lockTTL  time.Duration
	logger   *log.Logger
}

// NewJobHandler 创建岗位处理器。locker可为nil。
func NewJobHandler(search JobSearcher, ingestor JobIngestRunner, locker ScrapeLocker, lockTTL time.Duration, logger *log.Logger) *JobHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "[JobHandler] ", log.LstdFlags)
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &JobHandler{
		search:   search,
		ingestor: ingestor,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// HandleScrapeJobs 触发一次抓取入库。
// POST /api/v1/jobs/scrape
// 同一时间只允许一次抓取在途；全部来源失败仍返回200和全零统计。
func (h *JobHandler) HandleScrapeJobs(ctx context.Context, c *app.RequestContext) {
	if h.locker != nil {
		lockValue := uuid.NewString()
		acquired, err := h.locker.AcquireLock(ctx, constants.KeyScrapeLock, lockValue, h.lockTTL)
		if err != nil {
			h.logger.Printf("获取抓取锁失败，继续执行可能导致重复抓取: %v", err)
		} else if !acquired {
			c.JSON(consts.StatusConflict, utils.H{
				"error":  "已有抓取任务在执行中，请稍后重试",
				"status": "processing",
			})
			return
		} else {
			defer func() {
				if released, relErr := h.locker.ReleaseLock(ctx, constants.KeyScrapeLock, lockValue); relErr != nil || !released {
					h.logger.Printf("释放抓取锁失败: %v, released=%v", relErr, released)
				}
			}()
		}
	}

	stats := h.ingestor.Run(ctx)
	c.JSON(consts.StatusOK, utils.H{
		"success": true,
		"scraped": stats.Scraped,
		"unique":  stats.Unique,
		"created": stats.Created,
		"updated": stats.Updated,
		"failed":  stats.Failed,
		"total":   stats.Created + stats.Updated,
	})
}

// HandleListJobs 分页搜索岗位。
// GET /api/v1/jobs?search=&location=&location_type=&salary_min=&limit=&offset=
func (h *JobHandler) HandleListJobs(ctx context.Context, c *app.RequestContext) {
	filter := storage.JobSearchFilter{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Limit:    constants.DefaultSearchLimit,
	}

	if lt := c.Query("location_type"); lt != "" {
		switch types.LocationType(lt) {
		case types.LocationRemote, types.LocationHybrid, types.LocationOnsite:
			filter.LocationType = lt
		default:
			respondValidation(c, "location_type", "location_type必须是remote/hybrid/onsite之一")
			return
		}
	}

	if s := c.Query("salary_min"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondValidation(c, "salary_min", "salary_min必须是非负整数")
			return
		}
		filter.SalaryMin = &n
	}

	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondValidation(c, "limit", "limit必须是正整数")
			return
		}
		if n > constants.MaxSearchLimit {
			n = constants.MaxSearchLimit
		}
		filter.Limit = n
	}
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondValidation(c, "offset", "offset必须是非负整数")
			return
		}
		filter.Offset = n
	}

	jobs, total, err := h.search.SearchJobs(ctx, filter)
	if err != nil {
		h.logger.Printf("岗位搜索失败: %v", err)
		respondError(c, err)
		return
	}

	dtos := make([]jobDTO, 0, len(jobs))
	for i := range jobs {
		dtos = append(dtos, toJobDTO(&jobs[i]))
	}
	c.JSON(consts.StatusOK, utils.H{
		"jobs":     dtos,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
		"has_more": int64(filter.Offset+len(jobs)) < total,
	})
}

// HandleGetJob 按ID获取岗位详情。
// GET /api/v1/jobs/:job_id
func (h *JobHandler) HandleGetJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		respondValidation(c, "job_id", "job_id不能为空")
		return
	}

	job, err := h.search.GetJobByID(ctx, jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toJobDTO(job))
}
