package handler

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"

	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// ApplicationRepo 投递记录存取接口
type ApplicationRepo interface {
	CreateApplication(ctx context.Context, application *models.Application) error
	GetApplicationByID(ctx context.Context, applicationID string) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	UpdateApplicationFields(ctx context.Context, applicationID string, updates map[string]interface{}) error
	DeleteApplication(ctx context.Context, applicationID string) error
}

// JobGetter 按ID查询岗位，用于创建投递前校验外键
type JobGetter interface {
	GetJobByID(ctx context.Context, jobID string) (*models.Job, error)
}

// ApplicationHandler 处理投递记录相关请求
type ApplicationHandler struct {
	apps   ApplicationRepo
	jobs   JobGetter
	logger *log.Logger
}

// NewApplicationHandler 创建投递处理器
func NewApplicationHandler(apps ApplicationRepo, jobs JobGetter, logger *log.Logger) *ApplicationHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "[ApplicationHandler] ", log.LstdFlags)
	}
	return &ApplicationHandler{apps: apps, jobs: jobs, logger: logger}
}

func validApplicationStatus(v string) bool {
	switch types.ApplicationStatus(v) {
	case types.StatusPending, types.StatusApplied, types.StatusViewed,
		types.StatusInterviewRequested, types.StatusInterviewed,
		types.StatusOffered, types.StatusRejected, types.StatusWithdrawn:
		return true
	}
	return false
}

// HandleListApplications 列出全部投递记录。
// GET /api/v1/applications
func (h *ApplicationHandler) HandleListApplications(ctx context.Context, c *app.RequestContext) {
	apps, err := h.apps.ListApplications(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]applicationDTO, 0, len(apps))
	for i := range apps {
		dtos = append(dtos, toApplicationDTO(&apps[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"applications": dtos, "total": len(dtos)})
}

// applicationCreateRequest POST请求体
type applicationCreateRequest struct {
	JobID       string  `json:"job_id"`
	ResumeID    *string `json:"resume_id"`
	Status      string  `json:"status"`
	CoverLetter string  `json:"cover_letter"`
	Notes       string  `json:"notes"`
}

// HandleCreateApplication 创建投递记录。状态为applied时写入applied_at。
// POST /api/v1/applications
func (h *ApplicationHandler) HandleCreateApplication(ctx context.Context, c *app.RequestContext) {
	var req applicationCreateRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}
	if req.JobID == "" {
		respondValidation(c, "job_id", "job_id不能为空")
		return
	}
	if req.Status == "" {
		req.Status = string(types.StatusPending)
	}
	if !validApplicationStatus(req.Status) {
		respondValidation(c, "status", "status取值非法")
		return
	}

	if _, err := h.jobs.GetJobByID(ctx, req.JobID); err != nil {
		respondError(c, err)
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "生成投递ID失败"})
		return
	}

	application := &models.Application{
		ApplicationID: id.String(),
		JobID:         req.JobID,
		ResumeID:      req.ResumeID,
		Status:        req.Status,
		CoverLetter:   req.CoverLetter,
		Notes:         req.Notes,
	}
	if req.Status == string(types.StatusApplied) {
		now := time.Now()
		application.AppliedAt = &now
	}

	if err := h.apps.CreateApplication(ctx, application); err != nil {
		h.logger.Printf("创建投递记录失败 job_id=%s: %v", req.JobID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusCreated, toApplicationDTO(application))
}

// applicationUpdateRequest PUT请求体
type applicationUpdateRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// HandleUpdateApplication 更新投递状态或备注。状态首次迁移到applied
// 时补写applied_at。
// PUT /api/v1/applications/:application_id
func (h *ApplicationHandler) HandleUpdateApplication(ctx context.Context, c *app.RequestContext) {
	applicationID := c.Param("application_id")
	if applicationID == "" {
		respondValidation(c, "application_id", "application_id不能为空")
		return
	}

	var req applicationUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}
	if req.Status != nil && !validApplicationStatus(*req.Status) {
		respondValidation(c, "status", "status取值非法")
		return
	}

	current, err := h.apps.GetApplicationByID(ctx, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == string(types.StatusApplied) && current.AppliedAt == nil {
			updates["applied_at"] = time.Now()
		}
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		c.JSON(consts.StatusOK, toApplicationDTO(current))
		return
	}

	if err := h.apps.UpdateApplicationFields(ctx, applicationID, updates); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.apps.GetApplicationByID(ctx, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toApplicationDTO(updated))
}

// HandleDeleteApplication 删除投递记录。
// DELETE /api/v1/applications/:application_id
func (h *ApplicationHandler) HandleDeleteApplication(ctx context.Context, c *app.RequestContext) {
	applicationID := c.Param("application_id")
	if applicationID == "" {
		respondValidation(c, "application_id", "application_id不能为空")
		return
	}

	if _, err := h.apps.GetApplicationByID(ctx, applicationID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.apps.DeleteApplication(ctx, applicationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"success": true})
}
