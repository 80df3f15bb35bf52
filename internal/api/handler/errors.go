package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"

	"jobhunt-go/internal/processor"
)

// respondError 按错误分类映射HTTP状态码：
// 校验失败→400（调用方自行处理），未找到→404，其余→500。
func respondError(c *app.RequestContext, err error) {
	switch {
	case errors.Is(err, processor.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
	case errors.Is(err, processor.ErrTextTooShort),
		errors.Is(err, processor.ErrUnsupportedFileType),
		errors.Is(err, processor.ErrFileTooLarge),
		errors.Is(err, processor.ErrEmptyFile):
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	default:
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}

// respondValidation 字段级校验错误
func respondValidation(c *app.RequestContext, field, message string) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": message, "field": field})
}
