package handler

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/storage/models"
)

// ResumeIngester 简历摄入管道
type ResumeIngester interface {
	Ingest(ctx context.Context, userID, fileName string, data []byte) (*models.Resume, error)
	Reparse(ctx context.Context, resumeID string) (*models.Resume, error)
}

// ResumeRepo 简历存取接口
type ResumeRepo interface {
	GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error)
	ListResumesByUser(ctx context.Context, userID string) ([]models.Resume, error)
	UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error
	SetPrimaryResume(ctx context.Context, userID, resumeID string) error
	DeleteResume(ctx context.Context, resumeID string) error
}

// UserResolver 单用户模式下解析（并按需创建）默认用户
type UserResolver interface {
	GetOrCreateDefaultUser(ctx context.Context, email, name string) (*models.User, error)
}

// ObjectDeleter 删除对象存储中的文件
type ObjectDeleter interface {
	DeleteFile(ctx context.Context, objectName string) error
}

// ResumeHandler 处理简历相关请求
type ResumeHandler struct {
	ingester ResumeIngester
	repo     ResumeRepo
	users    UserResolver
	objects  ObjectDeleter
	logger   *log.Logger
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(ingester ResumeIngester, repo ResumeRepo, users UserResolver, objects ObjectDeleter, logger *log.Logger) *ResumeHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "[ResumeHandler] ", log.LstdFlags)
	}
	return &ResumeHandler{
		ingester: ingester,
		repo:     repo,
		users:    users,
		objects:  objects,
		logger:   logger,
	}
}

// defaultUser 解析默认用户
func (h *ResumeHandler) defaultUser(ctx context.Context) (*models.User, error) {
	return h.users.GetOrCreateDefaultUser(ctx, constants.DefaultUserEmail, constants.DefaultUserName)
}

// HandleUploadResume 接收multipart上传的简历并走完整摄入管道。
// POST /api/v1/resumes
func (h *ResumeHandler) HandleUploadResume(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondValidation(c, "file", "未找到上传文件")
		return
	}
	if fileHeader.Size > int64(constants.MaxResumeFileSize) {
		respondValidation(c, "file", "文件超过大小限制")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开上传文件失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件失败"})
		return
	}

	user, err := h.defaultUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	resume, err := h.ingester.Ingest(ctx, user.UserID, fileHeader.Filename, data)
	if err != nil {
		h.logger.Printf("简历摄入失败 file=%s: %v", fileHeader.Filename, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusCreated, toResumeDTO(resume))
}

// HandleListResumes 列出当前用户的所有简历（主简历排最前）。
// GET /api/v1/resumes
func (h *ResumeHandler) HandleListResumes(ctx context.Context, c *app.RequestContext) {
	user, err := h.defaultUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	resumes, err := h.repo.ListResumesByUser(ctx, user.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]resumeDTO, 0, len(resumes))
	for i := range resumes {
		dtos = append(dtos, toResumeDTO(&resumes[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"resumes": dtos, "total": len(dtos)})
}

// HandleGetResume 获取单份简历。
// GET /api/v1/resumes/:resume_id
func (h *ResumeHandler) HandleGetResume(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	resume, err := h.repo.GetResumeByID(ctx, resumeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toResumeDTO(resume))
}

// resumeUpdateRequest PUT请求体。指针字段区分"未提供"和"置空"。
type resumeUpdateRequest struct {
	FileName  *string `json:"file_name"`
	IsPrimary *bool   `json:"is_primary"`
}

// HandleUpdateResume 更新简历字段。is_primary=true时原子地
// 清掉该用户其余简历的主标记。
// PUT /api/v1/resumes/:resume_id
func (h *ResumeHandler) HandleUpdateResume(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	var req resumeUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}

	if req.FileName != nil {
		if *req.FileName == "" {
			respondValidation(c, "file_name", "file_name不能为空")
			return
		}
		if err := h.repo.UpdateResumeFields(ctx, resumeID, map[string]interface{}{"file_name": *req.FileName}); err != nil {
			respondError(c, err)
			return
		}
	}

	if req.IsPrimary != nil {
		if *req.IsPrimary {
			user, err := h.defaultUser(ctx)
			if err != nil {
				respondError(c, err)
				return
			}
			if err := h.repo.SetPrimaryResume(ctx, user.UserID, resumeID); err != nil {
				respondError(c, err)
				return
			}
		} else {
			if err := h.repo.UpdateResumeFields(ctx, resumeID, map[string]interface{}{"is_primary": false}); err != nil {
				respondError(c, err)
				return
			}
		}
	}

	resume, err := h.repo.GetResumeByID(ctx, resumeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toResumeDTO(resume))
}

// HandleDeleteResume 删除简历及其在对象存储中的原始文件。
// DELETE /api/v1/resumes/:resume_id
func (h *ResumeHandler) HandleDeleteResume(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	resume, err := h.repo.GetResumeByID(ctx, resumeID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.repo.DeleteResume(ctx, resumeID); err != nil {
		respondError(c, err)
		return
	}

	// 对象删除失败只记日志，DB行已删除
	if h.objects != nil && resume.ObjectKey != "" {
		if err := h.objects.DeleteFile(ctx, resume.ObjectKey); err != nil {
			h.logger.Printf("删除对象失败 object_key=%s: %v", resume.ObjectKey, err)
		}
	}
	c.JSON(consts.StatusOK, utils.H{"success": true})
}

// HandleReparseResume 基于已存储的原始文件重新解析简历。
// POST /api/v1/resumes/:resume_id/parse
func (h *ResumeHandler) HandleReparseResume(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if resumeID == "" {
		respondValidation(c, "resume_id", "resume_id不能为空")
		return
	}

	resume, err := h.ingester.Reparse(ctx, resumeID)
	if err != nil {
		h.logger.Printf("简历重新解析失败 resume_id=%s: %v", resumeID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toResumeDTO(resume))
}
