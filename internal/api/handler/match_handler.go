package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// AnalysisProvider 匹配分析服务（带缓存）
type AnalysisProvider interface {
	GetAnalysis(ctx context.Context, jobID, resumeID string) (*types.MatchAnalysis, bool, error)
}

// Tailoring 简历定制与求职信服务
type Tailoring interface {
	Tailor(ctx context.Context, resumeID, jobID string, keywords []string) (*models.TailoredResume, *types.TailoredResumeResult, error)
	CoverLetter(ctx context.Context, resumeID, jobID, instructions string) (string, error)
}

// MatchHandler 处理匹配分析与定制相关请求
type MatchHandler struct {
	analysis AnalysisProvider
	tailor   Tailoring
	logger   *log.Logger
}

// NewMatchHandler 创建匹配处理器
func NewMatchHandler(analysis AnalysisProvider, tailor Tailoring, logger *log.Logger) *MatchHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "[MatchHandler] ", log.LstdFlags)
	}
	return &MatchHandler{analysis: analysis, tailor: tailor, logger: logger}
}

// HandleGetMatch 获取岗位与简历的匹配分析。缓存新鲜则直接返回，
// 否则触发一次LLM分析并回填缓存。
// GET /api/v1/matches/:job_id/:resume_id
func (h *MatchHandler) HandleGetMatch(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	resumeID := c.Param("resume_id")
	if jobID == "" || resumeID == "" {
		respondValidation(c, "path", "job_id和resume_id不能为空")
		return
	}

	analysis, cached, err := h.analysis.GetAnalysis(ctx, jobID, resumeID)
	if err != nil {
		h.logger.Printf("匹配分析失败 job_id=%s resume_id=%s: %v", jobID, resumeID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"analysis": analysis, "cached": cached})
}

// tailorRequest 定制简历的请求体
type tailorRequest struct {
	JobID    string   `json:"job_id"`
	Keywords []string `json:"keywords"`
}

// HandleTailorResume 为指定岗位生成定制版简历。
// POST /api/v1/resumes/:resume_id/tailor
func (h *MatchHandler) HandleTailorResume(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	var req tailorRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}
	if req.JobID == "" {
		respondValidation(c, "job_id", "job_id不能为空")
		return
	}

	record, result, err := h.tailor.Tailor(ctx, resumeID, req.JobID, req.Keywords)
	if err != nil {
		h.logger.Printf("简历定制失败 resume_id=%s job_id=%s: %v", resumeID, req.JobID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"tailored_id":          record.TailoredID,
		"tailored_resume":      result.TailoredResume,
		"changes":              result.Changes,
		"keywords_applied":     result.KeywordsApplied,
		"keywords_not_applied": result.KeywordsNotApplied,
		"honesty_score":        result.HonestyScore,
	})
}

// coverLetterRequest 生成求职信的请求体
type coverLetterRequest struct {
	JobID        string `json:"job_id"`
	Instructions string `json:"instructions"`
}

// HandleCoverLetter 为指定岗位生成求职信。
// POST /api/v1/resumes/:resume_id/cover-letter
func (h *MatchHandler) HandleCoverLetter(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	var req coverLetterRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}
	if req.JobID == "" {
		respondValidation(c, "job_id", "job_id不能为空")
		return
	}

	letter, err := h.tailor.CoverLetter(ctx, resumeID, req.JobID, req.Instructions)
	if err != nil {
		h.logger.Printf("求职信生成失败 resume_id=%s job_id=%s: %v", resumeID, req.JobID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cover_letter": letter})
}
