package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// PreferencesRepo 偏好存取接口
type PreferencesRepo interface {
	GetPreferencesByUser(ctx context.Context, userID string) (*models.UserPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.UserPreferences) error
}

// UserHandler 处理用户偏好相关请求
type UserHandler struct {
	prefs  PreferencesRepo
	users  UserResolver
	logger *log.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(prefs PreferencesRepo, users UserResolver, logger *log.Logger) *UserHandler {
	if logger == nil {
		logger = log.New(os.Stdout, "[UserHandler] ", log.LstdFlags)
	}
	return &UserHandler{prefs: prefs, users: users, logger: logger}
}

// HandleGetPreferences 获取当前用户偏好，没有记录时返回默认值。
// GET /api/v1/user/preferences
func (h *UserHandler) HandleGetPreferences(ctx context.Context, c *app.RequestContext) {
	user, err := h.users.GetOrCreateDefaultUser(ctx, constants.DefaultUserEmail, constants.DefaultUserName)
	if err != nil {
		respondError(c, err)
		return
	}

	prefs, err := h.prefs.GetPreferencesByUser(ctx, user.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(consts.StatusOK, preferencesDTO{
				RemotePreference: string(types.RemoteFlexible),
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toPreferencesDTO(prefs))
}

// preferencesUpdateRequest PUT请求体，指针字段区分"未提供"和"置空"
type preferencesUpdateRequest struct {
	DesiredTitles         *[]string `json:"desired_titles"`
	DesiredLocations      *[]string `json:"desired_locations"`
	DesiredSalaryMin      *int      `json:"desired_salary_min"`
	RemotePreference      *string   `json:"remote_preference"`
	SearchQueries         *[]string `json:"search_queries"`
	AutoApply             *bool     `json:"auto_apply"`
	DailyApplicationLimit *int      `json:"daily_application_limit"`
}

func validRemotePreference(v string) bool {
	switch types.RemotePreference(v) {
	case types.RemoteOnly, types.RemoteHybrid, types.RemoteOnsite, types.RemoteFlexible:
		return true
	}
	return false
}

// HandleUpdatePreferences 局部更新用户偏好并返回完整记录。
// PUT /api/v1/user/preferences
func (h *UserHandler) HandleUpdatePreferences(ctx context.Context, c *app.RequestContext) {
	var req preferencesUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		respondValidation(c, "body", "请求体不是合法的JSON")
		return
	}
	if req.RemotePreference != nil && !validRemotePreference(*req.RemotePreference) {
		respondValidation(c, "remote_preference", "remote_preference取值非法")
		return
	}
	if req.DesiredSalaryMin != nil && *req.DesiredSalaryMin < 0 {
		respondValidation(c, "desired_salary_min", "desired_salary_min不能为负数")
		return
	}
	if req.DailyApplicationLimit != nil && *req.DailyApplicationLimit < 0 {
		respondValidation(c, "daily_application_limit", "daily_application_limit不能为负数")
		return
	}

	user, err := h.users.GetOrCreateDefaultUser(ctx, constants.DefaultUserEmail, constants.DefaultUserName)
	if err != nil {
		respondError(c, err)
		return
	}

	prefs, err := h.prefs.GetPreferencesByUser(ctx, user.UserID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			respondError(c, err)
			return
		}
		id, idErr := uuid.NewV7()
		if idErr != nil {
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "生成偏好ID失败"})
			return
		}
		prefs = &models.UserPreferences{
			PreferencesID:    id.String(),
			UserID:           user.UserID,
			RemotePreference: string(types.RemoteFlexible),
		}
	}

	if req.DesiredTitles != nil {
		if prefs.DesiredTitlesJSON, err = models.ToJSON(*req.DesiredTitles); err != nil {
			respondValidation(c, "desired_titles", "desired_titles序列化失败")
			return
		}
	}
	if req.DesiredLocations != nil {
		if prefs.DesiredLocationsJSON, err = models.ToJSON(*req.DesiredLocations); err != nil {
			respondValidation(c, "desired_locations", "desired_locations序列化失败")
			return
		}
	}
	if req.SearchQueries != nil {
		if prefs.SearchQueriesJSON, err = models.ToJSON(*req.SearchQueries); err != nil {
			respondValidation(c, "search_queries", "search_queries序列化失败")
			return
		}
	}
	if req.DesiredSalaryMin != nil {
		prefs.DesiredSalaryMin = req.DesiredSalaryMin
	}
	if req.RemotePreference != nil {
		prefs.RemotePreference = *req.RemotePreference
	}
	if req.AutoApply != nil {
		prefs.AutoApply = *req.AutoApply
	}
	if req.DailyApplicationLimit != nil {
		prefs.DailyApplicationLimit = req.DailyApplicationLimit
	}

	if err := h.prefs.UpsertPreferences(ctx, prefs); err != nil {
		h.logger.Printf("更新用户偏好失败 user_id=%s: %v", user.UserID, err)
		respondError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toPreferencesDTO(prefs))
}
