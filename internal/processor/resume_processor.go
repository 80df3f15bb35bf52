package processor

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/parser"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"
)

var resumeTracer = otel.Tracer("jobhunt-go/processor/resume")

// md5RecordTTL 文件去重记录的保留时长
const md5RecordTTL = 30 * 24 * time.Hour

// ResumeProcessor 简历摄入管道：提取→清洗→LLM结构化→上传原件→落库。
// PDF优先走进程内提取器，失败时回落到Tika；docx只有Tika路径。
type ResumeProcessor struct {
	pdfExtractor      DocumentExtractor
	fallbackExtractor DocumentExtractor
	structurer        ResumeStructurer
	objects           ResumeObjectStore
	store             ResumeStore
	dedup             FileDedup
	logger            *log.Logger
}

// ResumeProcessorOption 用于配置ResumeProcessor
type ResumeProcessorOption func(*ResumeProcessor)

// WithFallbackExtractor 设置回落提取器（Tika），同时承担docx路径
func WithFallbackExtractor(extractor DocumentExtractor) ResumeProcessorOption {
	return func(p *ResumeProcessor) {
		p.fallbackExtractor = extractor
	}
}

// WithFileDedup 启用基于文件MD5的重复上传检测
func WithFileDedup(dedup FileDedup) ResumeProcessorOption {
	return func(p *ResumeProcessor) {
		p.dedup = dedup
	}
}

// WithResumeProcessorLogger 设置日志记录器
func WithResumeProcessorLogger(logger *log.Logger) ResumeProcessorOption {
	return func(p *ResumeProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewResumeProcessor 创建简历摄入管道
func NewResumeProcessor(
	pdfExtractor DocumentExtractor,
	structurer ResumeStructurer,
	objects ResumeObjectStore,
	store ResumeStore,
	opts ...ResumeProcessorOption,
) (*ResumeProcessor, error) {
	if structurer == nil {
		return nil, fmt.Errorf("简历结构化组件不能为空")
	}
	if objects == nil || store == nil {
		return nil, fmt.Errorf("存储依赖不能为空")
	}

	p := &ResumeProcessor{
		pdfExtractor: pdfExtractor,
		structurer:   structurer,
		objects:      objects,
		store:        store,
		logger:       log.New(os.Stderr, "[ResumeProcessor] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Ingest 处理一份上传的简历文件，返回落库后的简历行。
// 同一文件（MD5相同）重复上传时直接返回已有简历，不再次调用LLM。
func (p *ResumeProcessor) Ingest(ctx context.Context, userID, fileName string, data []byte) (*models.Resume, error) {
	ctx, span := resumeTracer.Start(ctx, "resume.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("resume.user_id", userID),
		// 简历文件名常含候选人姓名，按PII掩码
		attribute.String("resume.file_name", tracing.SafeAttributeValue("file_name", fileName, tracing.DefaultMaxLength)),
		attribute.Int("resume.file_size", len(data)),
	)

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > constants.MaxResumeFileSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	fileType := strings.TrimPrefix(ext, ".")

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	resumeID := newUUID.String()

	// 文件级去重：同一内容不重复走提取和LLM
	md5Hex := ""
	if p.dedup != nil {
		sum := md5.Sum(data)
		md5Hex = hex.EncodeToString(sum[:])
		exists, existingID, dedupErr := p.dedup.CheckAndSetResumeFileMD5(ctx, md5Hex, resumeID, md5RecordTTL)
		if dedupErr != nil {
			p.logger.Printf("文件去重检查失败，跳过去重: %v", dedupErr)
		} else if exists && existingID != "" {
			existing, getErr := p.store.GetResumeByID(ctx, existingID)
			if getErr == nil {
				p.logger.Printf("检测到重复上传，返回已有简历 resume_id=%s", existingID)
				return existing, nil
			}
			// 去重记录指向的简历已不存在，按新上传处理
			p.logger.Printf("去重记录指向的简历不存在(resume_id=%s)，按新文件处理", existingID)
		}
	}

	text, err := p.extractText(ctx, ext, fileName, data)
	if err != nil {
		p.removeDedupRecord(ctx, md5Hex)
		return nil, err
	}

	cleaned := parser.CleanText(text)
	span.SetAttributes(attribute.String("resume.text_preview", tracing.SafeResumeContent(cleaned)))
	if utf8.RuneCountInString(cleaned) < constants.MinResumeTextLength {
		p.removeDedupRecord(ctx, md5Hex)
		return nil, &PipelineError{
			EntityID: resumeID,
			Op:       "extract",
			BaseErr:  ErrTextTooShort,
			Detail:   fmt.Sprintf("清洗后文本长度=%d", utf8.RuneCountInString(cleaned)),
		}
	}

	profile, err := p.structurer.Parse(ctx, cleaned)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		p.removeDedupRecord(ctx, md5Hex)
		return nil, NewLLMError(resumeID, err.Error())
	}

	objectKey, _, err := p.objects.UploadResumeFileStreaming(ctx, resumeID, ext, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.removeDedupRecord(ctx, md5Hex)
		return nil, NewStoreError(resumeID, "上传原始文件失败: "+err.Error())
	}

	resume := &models.Resume{
		ResumeID:  resumeID,
		UserID:    userID,
		FileName:  fileName,
		ObjectKey: objectKey,
		FileType:  fileType,
		Version:   1,
	}
	if err := applyProfile(resume, profile); err != nil {
		p.removeDedupRecord(ctx, md5Hex)
		return nil, NewStoreError(resumeID, "序列化档案字段失败: "+err.Error())
	}

	if err := p.store.CreateResume(ctx, resume); err != nil {
		// 落库失败时回收已上传的对象，避免留下孤儿文件
		if delErr := p.objects.DeleteFile(ctx, objectKey); delErr != nil {
			p.logger.Printf("回收对象失败 object_key=%s: %v", objectKey, delErr)
		}
		p.removeDedupRecord(ctx, md5Hex)
		return nil, NewStoreError(resumeID, err.Error())
	}

	p.logger.Printf("简历摄入完成 resume_id=%s file=%s 文本长度=%d", resumeID, fileName, utf8.RuneCountInString(cleaned))
	return resume, nil
}

// Reparse 从对象存储重新提取并解析已有简历。
// 只有整个管道成功才写回并将version加一；任何失败都不触碰原有行。
func (p *ResumeProcessor) Reparse(ctx context.Context, resumeID string) (*models.Resume, error) {
	resume, err := p.store.GetResumeByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(resumeID, "简历不存在")
		}
		return nil, NewStoreError(resumeID, err.Error())
	}
	if resume.ObjectKey == "" {
		return nil, NewStoreError(resumeID, "简历没有关联的原始文件")
	}

	data, err := p.objects.GetResumeFile(ctx, resume.ObjectKey)
	if err != nil {
		return nil, NewStoreError(resumeID, "下载原始文件失败: "+err.Error())
	}

	ext := "." + resume.FileType
	text, err := p.extractText(ctx, ext, resume.FileName, data)
	if err != nil {
		return nil, err
	}

	cleaned := parser.CleanText(text)
	if utf8.RuneCountInString(cleaned) < constants.MinResumeTextLength {
		return nil, &PipelineError{
			EntityID: resumeID,
			Op:       "extract",
			BaseErr:  ErrTextTooShort,
			Detail:   fmt.Sprintf("清洗后文本长度=%d", utf8.RuneCountInString(cleaned)),
		}
	}

	profile, err := p.structurer.Parse(ctx, cleaned)
	if err != nil {
		return nil, NewLLMError(resumeID, err.Error())
	}

	updates, err := profileUpdates(profile)
	if err != nil {
		return nil, NewStoreError(resumeID, "序列化档案字段失败: "+err.Error())
	}
	updates["version"] = gorm.Expr("version + 1")

	if err := p.store.UpdateResumeFields(ctx, resumeID, updates); err != nil {
		return nil, NewStoreError(resumeID, err.Error())
	}

	updated, err := p.store.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, NewStoreError(resumeID, err.Error())
	}
	p.logger.Printf("简历重新解析完成 resume_id=%s version=%d", resumeID, updated.Version)
	return updated, nil
}

// extractText 按文件类型选择提取路径
func (p *ResumeProcessor) extractText(ctx context.Context, ext, fileName string, data []byte) (string, error) {
	switch ext {
	case ".pdf":
		if p.pdfExtractor != nil {
			text, _, err := p.pdfExtractor.ExtractTextFromBytes(ctx, data, fileName, nil)
			if err == nil {
				return text, nil
			}
			p.logger.Printf("进程内PDF提取失败，尝试回落提取器: %v", err)
		}
		if p.fallbackExtractor == nil {
			return "", NewExtractError(fileName, "PDF提取失败且未配置回落提取器")
		}
		text, _, err := p.fallbackExtractor.ExtractTextFromBytes(ctx, data, fileName, nil)
		if err != nil {
			return "", NewExtractError(fileName, "两条PDF提取路径均失败，建议重新导出PDF或改传DOCX: "+err.Error())
		}
		return text, nil

	case ".docx", ".doc":
		if p.fallbackExtractor == nil {
			return "", ErrUnsupportedFileType
		}
		text, _, err := p.fallbackExtractor.ExtractTextFromBytes(ctx, data, fileName, nil)
		if err != nil {
			return "", NewExtractError(fileName, err.Error())
		}
		return text, nil

	case ".txt":
		return string(data), nil

	default:
		return "", ErrUnsupportedFileType
	}
}

func (p *ResumeProcessor) removeDedupRecord(ctx context.Context, md5Hex string) {
	if p.dedup == nil || md5Hex == "" {
		return
	}
	if err := p.dedup.RemoveResumeFileMD5(ctx, md5Hex); err != nil {
		p.logger.Printf("清理文件去重记录失败: %v", err)
	}
}

// applyProfile 把结构化档案写入简历行
func applyProfile(resume *models.Resume, profile *types.ResumeProfile) error {
	resume.FullName = profile.FullName
	resume.Email = profile.Email
	resume.Phone = profile.Phone
	resume.Location = profile.Location
	resume.Summary = profile.Summary

	var err error
	if resume.SkillsJSON, err = models.ToJSON(profile.Skills); err != nil {
		return err
	}
	if resume.ExperienceJSON, err = models.ToJSON(profile.Experience); err != nil {
		return err
	}
	if resume.EducationJSON, err = models.ToJSON(profile.Education); err != nil {
		return err
	}
	if resume.CertificationsJSON, err = models.ToJSON(profile.Certifications); err != nil {
		return err
	}
	return nil
}

// profileUpdates 生成Reparse用的字段更新映射
func profileUpdates(profile *types.ResumeProfile) (map[string]interface{}, error) {
	skills, err := models.ToJSON(profile.Skills)
	if err != nil {
		return nil, err
	}
	experience, err := models.ToJSON(profile.Experience)
	if err != nil {
		return nil, err
	}
	education, err := models.ToJSON(profile.Education)
	if err != nil {
		return nil, err
	}
	certifications, err := models.ToJSON(profile.Certifications)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"full_name":           profile.FullName,
		"email":               profile.Email,
		"phone":               profile.Phone,
		"location":            profile.Location,
		"summary":             profile.Summary,
		"skills_json":         skills,
		"experience_json":     experience,
		"education_json":      education,
		"certifications_json": certifications,
	}, nil
}
