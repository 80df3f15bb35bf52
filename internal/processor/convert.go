package processor

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// ProfileFromResume 从简历表行还原结构化档案
func ProfileFromResume(resume *models.Resume) types.ResumeProfile {
	profile := types.ResumeProfile{
		FullName: resume.FullName,
		Email:    resume.Email,
		Phone:    resume.Phone,
		Location: resume.Location,
		Summary:  resume.Summary,
		Skills:   models.JSONToStrings(resume.SkillsJSON),
	}
	if len(resume.ExperienceJSON) > 0 {
		_ = json.Unmarshal(resume.ExperienceJSON, &profile.Experience)
	}
	if len(resume.EducationJSON) > 0 {
		_ = json.Unmarshal(resume.EducationJSON, &profile.Education)
	}
	profile.Certifications = models.JSONToStrings(resume.CertificationsJSON)
	return profile
}

// resumeProfileJSON 序列化档案，供LLM提示词使用
func resumeProfileJSON(resume *models.Resume) (string, error) {
	profile := ProfileFromResume(resume)
	data, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("序列化简历档案失败: %w", err)
	}
	return string(data), nil
}

// jobPromptContext 把岗位行拼成LLM可读的JD文本
func jobPromptContext(job *models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\n", job.Title, job.Company)
	if job.Location != "" {
		fmt.Fprintf(&b, "Location: %s (%s)\n", job.Location, job.LocationType)
	}
	if job.SalaryMin != nil || job.SalaryMax != nil {
		b.WriteString("Salary: ")
		if job.SalaryMin != nil {
			fmt.Fprintf(&b, "%d", *job.SalaryMin)
		}
		b.WriteString(" - ")
		if job.SalaryMax != nil {
			fmt.Fprintf(&b, "%d", *job.SalaryMax)
		}
		if job.Currency != "" {
			fmt.Fprintf(&b, " %s", job.Currency)
		}
		b.WriteString("\n")
	}
	if reqs := models.JSONToStrings(job.RequirementsJSON); len(reqs) > 0 {
		fmt.Fprintf(&b, "Requirements: %s\n", strings.Join(reqs, ", "))
	}
	fmt.Fprintf(&b, "\n%s", job.Description)
	return b.String()
}

// analysisFromCacheRow 把匹配缓存行解码回结构化分析结果
func analysisFromCacheRow(row *models.JobMatchCache) (*types.MatchAnalysis, error) {
	analysis := &types.MatchAnalysis{
		ConfidenceScore:    row.ConfidenceScore,
		MatchedSkills:      models.JSONToStrings(row.MatchedSkillsJSON),
		MissingSkills:      models.JSONToStrings(row.MissingSkillsJSON),
		TransferableSkills: models.JSONToStrings(row.TransferableSkillsJSON),
		Strengths:          models.JSONToStrings(row.StrengthsJSON),
		Gaps:               models.JSONToStrings(row.GapsJSON),
		Recommendation:     row.Recommendation,
	}
	if len(row.KeywordsDetectedJSON) > 0 {
		if err := json.Unmarshal(row.KeywordsDetectedJSON, &analysis.KeywordsDetected); err != nil {
			return nil, fmt.Errorf("解码keywords_detected失败: %w", err)
		}
	}
	return analysis, nil
}

// cacheRowFromAnalysis 把分析结果编码为缓存行
func cacheRowFromAnalysis(jobID, resumeID string, analysis *types.MatchAnalysis) (*models.JobMatchCache, error) {
	row := &models.JobMatchCache{
		JobID:           jobID,
		ResumeID:        resumeID,
		ConfidenceScore: analysis.ConfidenceScore,
		Recommendation:  analysis.Recommendation,
	}
	var err error
	if row.MatchedSkillsJSON, err = models.ToJSON(analysis.MatchedSkills); err != nil {
		return nil, err
	}
	if row.MissingSkillsJSON, err = models.ToJSON(analysis.MissingSkills); err != nil {
		return nil, err
	}
	if row.TransferableSkillsJSON, err = models.ToJSON(analysis.TransferableSkills); err != nil {
		return nil, err
	}
	if row.StrengthsJSON, err = models.ToJSON(analysis.Strengths); err != nil {
		return nil, err
	}
	if row.GapsJSON, err = models.ToJSON(analysis.Gaps); err != nil {
		return nil, err
	}
	if row.KeywordsDetectedJSON, err = models.ToJSON(analysis.KeywordsDetected); err != nil {
		return nil, err
	}
	return row, nil
}
