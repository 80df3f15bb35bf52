package handler

import (
	"time"

	"jobhunt-go/internal/processor"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// jobDTO 岗位的对外表示，requirements展开为字符串数组
type jobDTO struct {
	JobID        string    `json:"job_id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Location     string    `json:"location"`
	LocationType string    `json:"location_type"`
	SalaryMin    *int      `json:"salary_min"`
	SalaryMax    *int      `json:"salary_max"`
	Currency     string    `json:"currency"`
	SourceURL    string    `json:"source_url"`
	SourceBoard  string    `json:"source_board"`
	PostedAt     time.Time `json:"posted_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func toJobDTO(job *models.Job) jobDTO {
	return jobDTO{
		JobID:        job.JobID,
		Title:        job.Title,
		Company:      job.Company,
		Description:  job.Description,
		Requirements: models.JSONToStrings(job.RequirementsJSON),
		Location:     job.Location,
		LocationType: job.LocationType,
		SalaryMin:    job.SalaryMin,
		SalaryMax:    job.SalaryMax,
		Currency:     job.Currency,
		SourceURL:    job.SourceURL,
		SourceBoard:  job.SourceBoard,
		PostedAt:     job.PostedAt,
		CreatedAt:    job.CreatedAt,
	}
}

// resumeDTO 简历的对外表示，结构化档案内联展开
type resumeDTO struct {
	ResumeID  string              `json:"resume_id"`
	FileName  string              `json:"file_name"`
	FileType  string              `json:"file_type"`
	Profile   types.ResumeProfile `json:"profile"`
	IsPrimary bool                `json:"is_primary"`
	Version   int                 `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toResumeDTO(resume *models.Resume) resumeDTO {
	return resumeDTO{
		ResumeID:  resume.ResumeID,
		FileName:  resume.FileName,
		FileType:  resume.FileType,
		Profile:   processor.ProfileFromResume(resume),
		IsPrimary: resume.IsPrimary,
		Version:   resume.Version,
		CreatedAt: resume.CreatedAt,
		UpdatedAt: resume.UpdatedAt,
	}
}

// preferencesDTO 求职偏好的对外表示
type preferencesDTO struct {
	DesiredTitles         []string `json:"desired_titles"`
	DesiredLocations      []string `json:"desired_locations"`
	DesiredSalaryMin      *int     `json:"desired_salary_min"`
	RemotePreference      string   `json:"remote_preference"`
	SearchQueries         []string `json:"search_queries"`
	AutoApply             bool     `json:"auto_apply"`
	DailyApplicationLimit *int     `json:"daily_application_limit"`
}

func toPreferencesDTO(prefs *models.UserPreferences) preferencesDTO {
	return preferencesDTO{
		DesiredTitles:         models.JSONToStrings(prefs.DesiredTitlesJSON),
		DesiredLocations:      models.JSONToStrings(prefs.DesiredLocationsJSON),
		DesiredSalaryMin:      prefs.DesiredSalaryMin,
		RemotePreference:      prefs.RemotePreference,
		SearchQueries:         models.JSONToStrings(prefs.SearchQueriesJSON),
		AutoApply:             prefs.AutoApply,
		DailyApplicationLimit: prefs.DailyApplicationLimit,
	}
}

// applicationDTO 投递记录的对外表示
type applicationDTO struct {
	ApplicationID string     `json:"application_id"`
	JobID         string     `json:"job_id"`
	ResumeID      *string    `json:"resume_id"`
	Status        string     `json:"status"`
	CoverLetter   string     `json:"cover_letter,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	AppliedAt     *time.Time `json:"applied_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toApplicationDTO(app *models.Application) applicationDTO {
	return applicationDTO{
		ApplicationID: app.ApplicationID,
		JobID:         app.JobID,
		ResumeID:      app.ResumeID,
		Status:        app.Status,
		CoverLetter:   app.CoverLetter,
		Notes:         app.Notes,
		AppliedAt:     app.AppliedAt,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
}
