package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrNotFound            = errors.New("目标记录不存在")
	ErrTextTooShort        = errors.New("提取的简历文本过短")
	ErrUnsupportedFileType = errors.New("不支持的简历文件类型")
	ErrFileTooLarge        = errors.New("简历文件超过大小限制")
	ErrEmptyFile           = errors.New("简历文件内容为空")
	ErrExtractFailed       = errors.New("提取简历文本失败")
	ErrLLMFailed           = errors.New("LLM调用失败")
	ErrStoreFailed         = errors.New("存储操作失败")
)

// PipelineError 包含详细上下文的管道错误
type PipelineError struct {
	EntityID string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, ID:%s): %s", e.BaseErr, e.Op, e.EntityID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, ID:%s)", e.BaseErr, e.Op, e.EntityID)
}

func (e *PipelineError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数

func NewExtractError(entityID, detail string) error {
	return &PipelineError{EntityID: entityID, Op: "extract", BaseErr: ErrExtractFailed, Detail: detail}
}

func NewLLMError(entityID, detail string) error {
	return &PipelineError{EntityID: entityID, Op: "llm", BaseErr: ErrLLMFailed, Detail: detail}
}

func NewStoreError(entityID, detail string) error {
	return &PipelineError{EntityID: entityID, Op: "store", BaseErr: ErrStoreFailed, Detail: detail}
}

func NewNotFoundError(entityID, detail string) error {
	return &PipelineError{EntityID: entityID, Op: "lookup", BaseErr: ErrNotFound, Detail: detail}
}
