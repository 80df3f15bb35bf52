package processor

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"
)

var matchTracer = otel.Tracer("jobhunt-go/processor/match")

// MatchService 匹配分析的缓存编排：Redis热缓存 → DB缓存行（24小时新鲜度）
// → 恰好一次LLM调用。同一(job, resume)对在新鲜度窗口内的重复请求
// 返回相同结果且不产生新的LLM调用。
type MatchService struct {
	jobs      JobStore
	resumes   ResumeStore
	cache     MatchCacheStore
	hot       HotCache
	analyzer  MatchAnalyzer
	freshness time.Duration
	logger    *log.Logger
}

// MatchServiceOption 用于配置MatchService
type MatchServiceOption func(*MatchService)

// WithHotCache 启用Redis热缓存
func WithHotCache(hot HotCache) MatchServiceOption {
	return func(s *MatchService) {
		s.hot = hot
	}
}

// WithFreshness 覆盖默认的24小时新鲜度窗口
func WithFreshness(freshness time.Duration) MatchServiceOption {
	return func(s *MatchService) {
		if freshness > 0 {
			s.freshness = freshness
		}
	}
}

// WithMatchServiceLogger 设置日志记录器
func WithMatchServiceLogger(logger *log.Logger) MatchServiceOption {
	return func(s *MatchService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMatchService 创建匹配分析服务
func NewMatchService(jobs JobStore, resumes ResumeStore, cache MatchCacheStore, analyzer MatchAnalyzer, opts ...MatchServiceOption) (*MatchService, error) {
	if jobs == nil || resumes == nil || cache == nil {
		return nil, errors.New("存储依赖不能为空")
	}
	if analyzer == nil {
		return nil, errors.New("匹配分析组件不能为空")
	}

	s := &MatchService{
		jobs:      jobs,
		resumes:   resumes,
		cache:     cache,
		analyzer:  analyzer,
		freshness: constants.MatchCacheFreshness,
		logger:    log.New(os.Stderr, "[MatchService] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetAnalysis 返回(job, resume)对的匹配分析。
// cached为true表示命中了缓存（热缓存或未过期的DB缓存行）。
func (s *MatchService) GetAnalysis(ctx context.Context, jobID, resumeID string) (analysis *types.MatchAnalysis, cached bool, err error) {
	ctx, span := matchTracer.Start(ctx, "match.get_analysis")
	defer span.End()
	span.SetAttributes(
		attribute.String("match.job_id", jobID),
		attribute.String("match.resume_id", resumeID),
	)

	// 一级：Redis热缓存
	if s.hot != nil {
		if hit, hotErr := s.hot.GetMatchAnalysis(ctx, jobID, resumeID); hotErr == nil && hit != nil {
			span.SetAttributes(attribute.String("match.cache", "redis"))
			return hit, true, nil
		}
	}

	// 二级：DB缓存行，按创建时间判断新鲜度
	row, rowErr := s.cache.GetMatchCache(ctx, jobID, resumeID)
	if rowErr == nil && row != nil && time.Since(row.CreatedAt) < s.freshness {
		fromRow, decodeErr := analysisFromCacheRow(row)
		if decodeErr == nil {
			// 回填TTL只能是该行剩余的新鲜度，否则热缓存会把条目
			// 的可见窗口拉长到计算时间之后最多2倍新鲜度
			s.fillHotCache(ctx, jobID, resumeID, fromRow, s.freshness-time.Since(row.CreatedAt))
			span.SetAttributes(attribute.String("match.cache", "mysql"))
			return fromRow, true, nil
		}
		s.logger.Printf("DB缓存行解码失败，按未命中处理 job=%s resume=%s: %v", jobID, resumeID, decodeErr)
	} else if rowErr != nil && !errors.Is(rowErr, gorm.ErrRecordNotFound) {
		tracing.RecordError(span, rowErr, tracing.ErrorTypeDB)
		return nil, false, NewStoreError(jobID, rowErr.Error())
	}

	// 未命中或已过期：先确认两侧实体仍然存在
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, NewNotFoundError(jobID, "岗位不存在")
		}
		return nil, false, NewStoreError(jobID, err.Error())
	}
	resume, err := s.resumes.GetResumeByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, NewNotFoundError(resumeID, "简历不存在")
		}
		return nil, false, NewStoreError(resumeID, err.Error())
	}

	resumeJSON, err := resumeProfileJSON(resume)
	if err != nil {
		return nil, false, err
	}

	// 恰好一次LLM调用，无自动重试；失败直接上抛
	fresh, err := s.analyzer.Analyze(ctx, jobPromptContext(job), resumeJSON)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, false, NewLLMError(jobID, err.Error())
	}

	newRow, err := cacheRowFromAnalysis(jobID, resumeID, fresh)
	if err != nil {
		return nil, false, NewStoreError(jobID, "编码缓存行失败: "+err.Error())
	}
	if err := s.cache.ReplaceMatchCache(ctx, newRow); err != nil {
		return nil, false, NewStoreError(jobID, err.Error())
	}
	s.fillHotCache(ctx, jobID, resumeID, fresh, s.freshness)

	span.SetAttributes(attribute.String("match.cache", "miss"))
	return fresh, false, nil
}

// fillHotCache 回填Redis，失败只记日志
func (s *MatchService) fillHotCache(ctx context.Context, jobID, resumeID string, analysis *types.MatchAnalysis, ttl time.Duration) {
	if s.hot == nil || ttl <= 0 {
		return
	}
	if err := s.hot.SetMatchAnalysis(ctx, jobID, resumeID, analysis, ttl); err != nil {
		s.logger.Printf("回填热缓存失败 job=%s resume=%s: %v", jobID, resumeID, err)
	}
}
