package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// User 用户主表。单用户模式下只存在一条默认记录，
// 但结构上保持完整，便于以后扩展为多租户。
type User struct {
	UserID    string    `gorm:"type:char(36);primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email_unique;not null"`
	Name      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Job 岗位信息表。ExternalID 为 "<板块>-<原始ID>"，是跨板块去重
// 和幂等入库的唯一键。
type Job struct {
	JobID            string         `gorm:"type:char(36);primaryKey"`
	Title            string         `gorm:"type:varchar(255);not null"`
	Company          string         `gorm:"type:varchar(255);not null"`
	Description      string         `gorm:"type:text"`
	RequirementsJSON datatypes.JSON `gorm:"type:json"`
	Location         string         `gorm:"type:varchar(255)"`
	LocationType     string         `gorm:"type:varchar(20);index:idx_jobs_location_type"`
	SalaryMin        *int           `gorm:"type:int;index:idx_jobs_salary_min"`
	SalaryMax        *int           `gorm:"type:int"`
	Currency         string         `gorm:"type:varchar(10)"`
	SourceURL        string         `gorm:"type:varchar(1024)"`
	SourceBoard      string         `gorm:"type:varchar(100);index:idx_jobs_source_board"`
	ExternalID       string         `gorm:"type:varchar(255);uniqueIndex:idx_jobs_external_id_unique;not null"`
	PostedAt         time.Time      `gorm:"type:datetime(6);index:idx_jobs_posted_at"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// Resume 简历表。结构化字段由 LLM 解析得出，列表字段以 JSON 落库。
// Version 每次重新解析成功后加一；IsPrimary 同一用户下至多一条为 true。
type Resume struct {
	ResumeID           string         `gorm:"type:char(36);primaryKey"`
	UserID             string         `gorm:"type:char(36);not null;index:idx_resumes_user_id"`
	FileName           string         `gorm:"type:varchar(255)"`
	ObjectKey          string         `gorm:"type:varchar(1024)"` // MinIO 中原始文件的对象键
	FileType           string         `gorm:"type:varchar(10)"`   // pdf / docx
	FullName           string         `gorm:"type:varchar(255)"`
	Email              string         `gorm:"type:varchar(255)"`
	Phone              string         `gorm:"type:varchar(50)"`
	Location           string         `gorm:"type:varchar(255)"`
	Summary            string         `gorm:"type:text"`
	SkillsJSON         datatypes.JSON `gorm:"type:json"`
	ExperienceJSON     datatypes.JSON `gorm:"type:json"`
	EducationJSON      datatypes.JSON `gorm:"type:json"`
	CertificationsJSON datatypes.JSON `gorm:"type:json"`
	IsPrimary          bool           `gorm:"default:false;index:idx_resumes_is_primary"`
	Version            int            `gorm:"default:1"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Resume) TableName() string {
	return "resumes"
}

// JobMatchCache 岗位-简历匹配分析缓存表。(JobID, ResumeID) 唯一，
// 过期后整行替换（先删后插），不做字段级更新。
type JobMatchCache struct {
	MatchID                uint64         `gorm:"primaryKey;autoIncrement"`
	JobID                  string         `gorm:"type:char(36);not null;uniqueIndex:idx_jmc_job_resume_unique,priority:1"`
	ResumeID               string         `gorm:"type:char(36);not null;uniqueIndex:idx_jmc_job_resume_unique,priority:2"`
	ConfidenceScore        int            `gorm:"type:int"`
	MatchedSkillsJSON      datatypes.JSON `gorm:"type:json"`
	MissingSkillsJSON      datatypes.JSON `gorm:"type:json"`
	TransferableSkillsJSON datatypes.JSON `gorm:"type:json"`
	StrengthsJSON          datatypes.JSON `gorm:"type:json"`
	GapsJSON               datatypes.JSON `gorm:"type:json"`
	Recommendation         string         `gorm:"type:text"`
	KeywordsDetectedJSON   datatypes.JSON `gorm:"type:json"`
	CreatedAt              time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Job    *Job    `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobMatchCache) TableName() string {
	return "job_match_caches"
}

// UserPreferences 用户求职偏好表，与用户一对一
type UserPreferences struct {
	PreferencesID         string         `gorm:"type:char(36);primaryKey"`
	UserID                string         `gorm:"type:char(36);uniqueIndex:idx_prefs_user_id_unique;not null"`
	DesiredTitlesJSON     datatypes.JSON `gorm:"type:json"`
	DesiredLocationsJSON  datatypes.JSON `gorm:"type:json"`
	DesiredSalaryMin      *int           `gorm:"type:int"`
	RemotePreference      string         `gorm:"type:varchar(20);default:'flexible'"`
	SearchQueriesJSON     datatypes.JSON `gorm:"type:json"`
	AutoApply             bool           `gorm:"default:false"`
	DailyApplicationLimit *int           `gorm:"type:int"`
	CreatedAt             time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt             time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

// TailoredResume 针对特定岗位定制后的简历版本，保留修改审计
type TailoredResume struct {
	TailoredID          string         `gorm:"type:char(36);primaryKey"`
	ResumeID            string         `gorm:"type:char(36);not null;index:idx_tr_resume_id"`
	JobID               string         `gorm:"type:char(36);not null;index:idx_tr_job_id"`
	ContentJSON         datatypes.JSON `gorm:"type:json"` // 定制后的完整档案
	ChangesJSON         datatypes.JSON `gorm:"type:json"`
	KeywordsAppliedJSON datatypes.JSON `gorm:"type:json"`
	KeywordsSkippedJSON datatypes.JSON `gorm:"type:json"`
	HonestyScore        int            `gorm:"type:int"`
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job    *Job    `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (TailoredResume) TableName() string {
	return "tailored_resumes"
}

// Application 投递记录表
type Application struct {
	ApplicationID string     `gorm:"type:char(36);primaryKey"`
	JobID         string     `gorm:"type:char(36);not null;index:idx_apps_job_id"`
	ResumeID      *string    `gorm:"type:char(36);index:idx_apps_resume_id"`
	Status        string     `gorm:"type:varchar(50);default:'pending';index:idx_apps_status"`
	CoverLetter   string     `gorm:"type:text"`
	Notes         string     `gorm:"type:text"`
	AppliedAt     *time.Time `gorm:"type:datetime(6)"`
	CreatedAt     time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt     time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Job    *Job    `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (Application) TableName() string {
	return "applications"
}

// ToJSON 将任意可序列化值转换为 datatypes.JSON
func ToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// JSONToStrings 将 JSON 数组列解码为字符串切片，空列返回 nil
func JSONToStrings(j datatypes.JSON) []string {
	if len(j) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(j, &out); err != nil {
		return nil
	}
	return out
}
