package constants

import "time"

const (
	// MaxJobsPerSource 单个招聘板一次抓取的上限
	MaxJobsPerSource = 50
	// SourceFetchTimeout 单个招聘板 HTTP 请求超时
	SourceFetchTimeout = 10 * time.Second

	// MinResumeTextLength 提取文本的最小有效长度，低于该值视为提取失败
	MinResumeTextLength = 50
	// MaxResumeFileSize 简历上传大小上限
	MaxResumeFileSize = 10 * 1024 * 1024

	// MatchCacheFreshness 匹配分析缓存的新鲜度窗口
	MatchCacheFreshness = 24 * time.Hour

	// DefaultUserEmail 单用户模式下的默认账户
	DefaultUserEmail = "user@jobhuntai.local"
	// DefaultUserName 默认账户显示名
	DefaultUserName = "Default User"

	// DefaultSearchLimit 岗位搜索默认分页大小
	DefaultSearchLimit = 20
	// MaxSearchLimit 岗位搜索分页大小上限
	MaxSearchLimit = 100
)

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有 Redis Key 的应用前缀
	AppPrefix = "app"

	// KeyMatchAnalysis 匹配分析热缓存 (STRING, JSON)
	// 格式: app:match:analysis:{jobID}:{resumeID}
	KeyMatchAnalysis = AppPrefix + ":match:analysis:%s:%s"

	// KeyScrapeLock 抓取互斥锁 (STRING)
	// 格式: app:scrape:lock
	KeyScrapeLock = AppPrefix + ":scrape:lock"

	// KeyResumeFileMD5 简历原始文件 MD5 到 resumeID 的映射 (STRING)
	// 格式: app:resume:md5:{md5}
	KeyResumeFileMD5 = AppPrefix + ":resume:md5:%s"
)
