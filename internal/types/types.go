package types

import "time"

// LocationType 工作地点类型
type LocationType string

const (
	// LocationRemote 远程
	LocationRemote LocationType = "remote"
	// LocationHybrid 混合办公
	LocationHybrid LocationType = "hybrid"
	// LocationOnsite 现场办公
	LocationOnsite LocationType = "onsite"
)

// RemotePreference 用户远程办公偏好
type RemotePreference string

const (
	RemoteOnly     RemotePreference = "remote_only"
	RemoteHybrid   RemotePreference = "hybrid"
	RemoteOnsite   RemotePreference = "onsite"
	RemoteFlexible RemotePreference = "flexible"
)

// ApplicationStatus 投递状态
type ApplicationStatus string

const (
	StatusPending            ApplicationStatus = "pending"
	StatusApplied            ApplicationStatus = "applied"
	StatusViewed             ApplicationStatus = "viewed"
	StatusInterviewRequested ApplicationStatus = "interview_requested"
	StatusInterviewed        ApplicationStatus = "interviewed"
	StatusOffered            ApplicationStatus = "offered"
	StatusRejected           ApplicationStatus = "rejected"
	StatusWithdrawn          ApplicationStatus = "withdrawn"
)

// ScrapedJob 各招聘板适配器抓取到的原始岗位记录。
// ExternalID 形如 "<source>-<id>"，跨板块全局唯一，是后续去重和落库的键。
type ScrapedJob struct {
	Title        string       `json:"title"`
	Company      string       `json:"company"`
	Description  string       `json:"description"`
	Requirements []string     `json:"requirements"`
	Location     string       `json:"location"`
	LocationType LocationType `json:"location_type"`
	SalaryMin    *int         `json:"salary_min"`
	SalaryMax    *int         `json:"salary_max"`
	Currency     string       `json:"currency"`
	SourceURL    string       `json:"source_url"`
	SourceBoard  string       `json:"source_board"`
	ExternalID   string       `json:"external_id"`
	PostedAt     time.Time    `json:"posted_at"`
}

// WorkExperience 一段工作经历（日期为 YYYY-MM，EndDate 为 nil 表示至今）
type WorkExperience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
}

// Education 一段教育经历
type Education struct {
	Degree         string  `json:"degree"`
	Institution    string  `json:"institution"`
	GraduationDate string  `json:"graduation_date"`
	GPA            *string `json:"gpa"`
}

// ResumeProfile LLM 从简历文本中结构化出的档案
type ResumeProfile struct {
	FullName       string           `json:"full_name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Location       string           `json:"location"`
	Summary        string           `json:"summary"`
	Skills         []string         `json:"skills"`
	Experience     []WorkExperience `json:"experience"`
	Education      []Education      `json:"education"`
	Certifications []string         `json:"certifications"`
}

// KeywordDetection 岗位关键词在简历中的检出情况
type KeywordDetection struct {
	Term             string `json:"term"`
	InResume         bool   `json:"in_resume"`
	CanAddTruthfully bool   `json:"can_add_truthfully"`
	Reasoning        string `json:"reasoning"`
}

// MatchAnalysis 简历-岗位匹配分析结果
type MatchAnalysis struct {
	ConfidenceScore    int                `json:"confidence_score"`
	MatchedSkills      []string           `json:"matched_skills"`
	MissingSkills      []string           `json:"missing_skills"`
	TransferableSkills []string           `json:"transferable_skills"`
	Strengths          []string           `json:"strengths"`
	Gaps               []string           `json:"gaps"`
	Recommendation     string             `json:"recommendation"`
	KeywordsDetected   []KeywordDetection `json:"keywords_detected"`
}

// TailorChange 定制简历时的一次修改，保留审计信息
type TailorChange struct {
	Section     string `json:"section"`
	Original    string `json:"original"`
	Modified    string `json:"modified"`
	Type        string `json:"type"` // rewrite / reorder / emphasize / add
	Explanation string `json:"explanation"`
	Truthful    bool   `json:"truthful"`
}

// KeywordApplied 成功植入的关键词
type KeywordApplied struct {
	Term           string `json:"term"`
	Location       string `json:"location"`
	Context        string `json:"context"`
	AlreadyPresent bool   `json:"already_present"`
}

// KeywordSkipped 因不真实而未植入的关键词
type KeywordSkipped struct {
	Term   string `json:"term"`
	Reason string `json:"reason"`
}

// TailoredResumeResult 简历定制的完整结果
type TailoredResumeResult struct {
	TailoredResume     ResumeProfile    `json:"tailored_resume"`
	Changes            []TailorChange   `json:"changes"`
	KeywordsApplied    []KeywordApplied `json:"keywords_applied"`
	KeywordsNotApplied []KeywordSkipped `json:"keywords_not_applied"`
	HonestyScore       int              `json:"honesty_score"`
}

// IngestStats 一次抓取入库的统计。Failed 计入单条落库失败的记录数，
// 不影响整批的处理。
type IngestStats struct {
	Scraped int `json:"scraped"`
	Unique  int `json:"unique"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
