package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// TailorService 简历定制和求职信生成的编排器。
// 定制时会把此前的匹配分析（如有）一并喂给LLM作为上下文。
type TailorService struct {
	jobs     JobStore
	resumes  ResumeStore
	cache    MatchCacheStore
	tailored TailoredStore
	tailorer ResumeTailorer
	letters  CoverLetterWriter
	logger   *log.Logger
}

// TailorServiceOption 用于配置TailorService
type TailorServiceOption func(*TailorService)

// WithCoverLetterWriter 启用求职信生成能力
func WithCoverLetterWriter(letters CoverLetterWriter) TailorServiceOption {
	return func(s *TailorService) {
		s.letters = letters
	}
}

// WithTailorServiceLogger 设置日志记录器
func WithTailorServiceLogger(logger *log.Logger) TailorServiceOption {
	return func(s *TailorService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewTailorService 创建定制服务
func NewTailorService(jobs JobStore, resumes ResumeStore, cache MatchCacheStore, tailored TailoredStore, tailorer ResumeTailorer, opts ...TailorServiceOption) (*TailorService, error) {
	if jobs == nil || resumes == nil || tailored == nil {
		return nil, errors.New("存储依赖不能为空")
	}
	if tailorer == nil {
		return nil, errors.New("简历定制组件不能为空")
	}

	s := &TailorService{
		jobs:     jobs,
		resumes:  resumes,
		cache:    cache,
		tailored: tailored,
		tailorer: tailorer,
		logger:   log.New(os.Stderr, "[TailorService] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// tailorContext 喂给LLM的附加上下文：历史匹配分析 + 用户点名的关键词
type tailorContext struct {
	Analysis          *types.MatchAnalysis `json:"analysis,omitempty"`
	RequestedKeywords []string             `json:"requested_keywords,omitempty"`
}

// Tailor 针对岗位定制简历并落库。keywords为用户额外点名要植入的关键词，可为空。
func (s *TailorService) Tailor(ctx context.Context, resumeID, jobID string, keywords []string) (*models.TailoredResume, *types.TailoredResumeResult, error) {
	resume, job, err := s.loadPair(ctx, resumeID, jobID)
	if err != nil {
		return nil, nil, err
	}

	resumeJSON, err := resumeProfileJSON(resume)
	if err != nil {
		return nil, nil, err
	}

	// 历史匹配分析是可选上下文，取不到不阻塞定制
	tc := tailorContext{RequestedKeywords: keywords}
	if s.cache != nil {
		if row, cacheErr := s.cache.GetMatchCache(ctx, jobID, resumeID); cacheErr == nil && row != nil {
			if analysis, decodeErr := analysisFromCacheRow(row); decodeErr == nil {
				tc.Analysis = analysis
			}
		}
	}
	contextJSON := ""
	if tc.Analysis != nil || len(tc.RequestedKeywords) > 0 {
		if data, marshalErr := json.Marshal(tc); marshalErr == nil {
			contextJSON = string(data)
		}
	}

	result, err := s.tailorer.Tailor(ctx, jobPromptContext(job), resumeJSON, contextJSON)
	if err != nil {
		return nil, nil, NewLLMError(resumeID, err.Error())
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	row := &models.TailoredResume{
		TailoredID:   newUUID.String(),
		ResumeID:     resumeID,
		JobID:        jobID,
		HonestyScore: result.HonestyScore,
	}
	if row.ContentJSON, err = models.ToJSON(result.TailoredResume); err != nil {
		return nil, nil, NewStoreError(resumeID, err.Error())
	}
	if row.ChangesJSON, err = models.ToJSON(result.Changes); err != nil {
		return nil, nil, NewStoreError(resumeID, err.Error())
	}
	if row.KeywordsAppliedJSON, err = models.ToJSON(result.KeywordsApplied); err != nil {
		return nil, nil, NewStoreError(resumeID, err.Error())
	}
	if row.KeywordsSkippedJSON, err = models.ToJSON(result.KeywordsNotApplied); err != nil {
		return nil, nil, NewStoreError(resumeID, err.Error())
	}

	if err := s.tailored.CreateTailoredResume(ctx, row); err != nil {
		return nil, nil, NewStoreError(resumeID, err.Error())
	}

	s.logger.Printf("简历定制完成 tailored_id=%s resume=%s job=%s honesty=%d",
		row.TailoredID, resumeID, jobID, result.HonestyScore)
	return row, result, nil
}

// CoverLetter 生成一封针对岗位的求职信。instructions为用户附加要求，可为空。
func (s *TailorService) CoverLetter(ctx context.Context, resumeID, jobID, instructions string) (string, error) {
	if s.letters == nil {
		return "", errors.New("未配置求职信生成组件")
	}

	resume, job, err := s.loadPair(ctx, resumeID, jobID)
	if err != nil {
		return "", err
	}

	resumeJSON, err := resumeProfileJSON(resume)
	if err != nil {
		return "", err
	}

	letter, err := s.letters.Write(ctx, jobPromptContext(job), resumeJSON, instructions)
	if err != nil {
		return "", NewLLMError(resumeID, err.Error())
	}
	return letter, nil
}

// loadPair 加载简历和岗位，任一缺失映射为ErrNotFound
func (s *TailorService) loadPair(ctx context.Context, resumeID, jobID string) (*models.Resume, *models.Job, error) {
	resume, err := s.resumes.GetResumeByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NewNotFoundError(resumeID, "简历不存在")
		}
		return nil, nil, NewStoreError(resumeID, err.Error())
	}
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NewNotFoundError(jobID, "岗位不存在")
		}
		return nil, nil, NewStoreError(jobID, err.Error())
	}
	return resume, job, nil
}
