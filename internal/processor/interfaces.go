package processor

import (
	"context"
	"io"
	"time"

	"jobhunt-go/internal/storage"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

//
// 存储相关接口（由internal/storage的具体实现满足，便于测试替换）
//

// JobStore 岗位存取接口
type JobStore interface {
	// UpsertScrapedJob 按external_id幂等入库，返回创建/更新标记
	UpsertScrapedJob(ctx context.Context, scraped types.ScrapedJob) (*storage.UpsertResult, error)

	// GetJobByID 按主键获取岗位
	GetJobByID(ctx context.Context, jobID string) (*models.Job, error)
}

// ResumeStore 简历存取接口
type ResumeStore interface {
	CreateResume(ctx context.Context, resume *models.Resume) error
	GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error)
	UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error
}

// MatchCacheStore 匹配分析缓存的持久层接口
type MatchCacheStore interface {
	GetMatchCache(ctx context.Context, jobID, resumeID string) (*models.JobMatchCache, error)

	// ReplaceMatchCache 整行替换同一(job, resume)对的旧条目
	ReplaceMatchCache(ctx context.Context, cache *models.JobMatchCache) error
}

// TailoredStore 定制简历的持久层接口
type TailoredStore interface {
	CreateTailoredResume(ctx context.Context, tailored *models.TailoredResume) error
}

// HotCache 匹配分析的热缓存（Redis），允许为nil（降级为只走DB缓存）
type HotCache interface {
	GetMatchAnalysis(ctx context.Context, jobID, resumeID string) (*types.MatchAnalysis, error)
	SetMatchAnalysis(ctx context.Context, jobID, resumeID string, analysis *types.MatchAnalysis, ttl time.Duration) error
}

// FileDedup 简历文件MD5去重接口（Redis），允许为nil
type FileDedup interface {
	// CheckAndSetResumeFileMD5 原子地检查并登记文件MD5，
	// 返回是否已存在以及已存在记录对应的简历ID
	CheckAndSetResumeFileMD5(ctx context.Context, md5Hex string, resumeID string, ttl time.Duration) (bool, string, error)
	RemoveResumeFileMD5(ctx context.Context, md5Hex string) error
}

// ResumeObjectStore 简历原始文件的对象存储接口（MinIO）
type ResumeObjectStore interface {
	// UploadResumeFileStreaming 流式上传并同时计算MD5，返回对象键和MD5十六进制串
	UploadResumeFileStreaming(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	DeleteFile(ctx context.Context, objectName string) error
}

//
// 文本提取与LLM能力接口（由internal/parser的具体实现满足）
//

// DocumentExtractor 文档文本提取接口
type DocumentExtractor interface {
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error)
}

// ResumeStructurer 简历文本结构化接口
type ResumeStructurer interface {
	Parse(ctx context.Context, resumeText string) (*types.ResumeProfile, error)
}

// MatchAnalyzer 岗位-简历匹配分析接口
type MatchAnalyzer interface {
	Analyze(ctx context.Context, jobDescription, resumeJSON string) (*types.MatchAnalysis, error)
}

// ResumeTailorer 简历定制接口
type ResumeTailorer interface {
	Tailor(ctx context.Context, jobDescription, resumeJSON, analysisJSON string) (*types.TailoredResumeResult, error)
}

// CoverLetterWriter 求职信生成接口
type CoverLetterWriter interface {
	Write(ctx context.Context, jobDescription, resumeJSON, instructions string) (string, error)
}

//
// 抓取相关接口
//

// JobScraper 岗位抓取入口。失败在聚合器内部降级，永不返回错误。
type JobScraper interface {
	ScrapeAll(ctx context.Context, queries []string) []types.ScrapedJob
}

// SearchQuerySource 提供本次抓取使用的搜索词。
// 每次Run都重新读取，用户更新偏好后下一次抓取立即生效。
type SearchQuerySource interface {
	SearchQueries(ctx context.Context) ([]string, error)
}
