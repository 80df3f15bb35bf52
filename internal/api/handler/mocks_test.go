package handler_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jobhunt-go/internal/storage"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

type mockIngestRunner struct {
	stats    types.IngestStats
	runCalls int
}

func (m *mockIngestRunner) Run(ctx context.Context) *types.IngestStats {
	m.runCalls++
	stats := m.stats
	return &stats
}

type mockJobSearcher struct {
	jobs       map[string]*models.Job
	lastFilter storage.JobSearchFilter
	searchErr  error
}

func newMockJobSearcher() *mockJobSearcher {
	return &mockJobSearcher{jobs: make(map[string]*models.Job)}
}

func (m *mockJobSearcher) SearchJobs(ctx context.Context, filter storage.JobSearchFilter) ([]models.Job, int64, error) {
	m.lastFilter = filter
	if m.searchErr != nil {
		return nil, 0, m.searchErr
	}
	out := make([]models.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out, int64(len(out)), nil
}

func (m *mockJobSearcher) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *job
	return &copied, nil
}

type mockLocker struct {
	held         bool
	acquireErr   error
	acquireCalls int
	releaseCalls int
}

func (m *mockLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.acquireCalls++
	if m.acquireErr != nil {
		return false, m.acquireErr
	}
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *mockLocker) ReleaseLock(ctx context.Context, key, value string) (bool, error) {
	m.releaseCalls++
	m.held = false
	return true, nil
}

type mockResumeIngester struct {
	resume      *models.Resume
	ingestErr   error
	lastFile    string
	ingestCalls int
}

func (m *mockResumeIngester) Ingest(ctx context.Context, userID, fileName string, data []byte) (*models.Resume, error) {
	m.ingestCalls++
	m.lastFile = fileName
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	return m.resume, nil
}

func (m *mockResumeIngester) Reparse(ctx context.Context, resumeID string) (*models.Resume, error) {
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	if m.resume == nil || m.resume.ResumeID != resumeID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m.resume
	copied.Version++
	return &copied, nil
}

type mockResumeRepo struct {
	resumes      map[string]*models.Resume
	primaryCalls []string
	deleted      []string
	lastUpdates  map[string]interface{}
}

func newMockResumeRepo() *mockResumeRepo {
	return &mockResumeRepo{resumes: make(map[string]*models.Resume)}
}

func (m *mockResumeRepo) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	r, ok := m.resumes[resumeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockResumeRepo) ListResumesByUser(ctx context.Context, userID string) ([]models.Resume, error) {
	out := make([]models.Resume, 0, len(m.resumes))
	for _, r := range m.resumes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockResumeRepo) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	r, ok := m.resumes[resumeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.lastUpdates = updates
	if v, ok := updates["file_name"].(string); ok {
		r.FileName = v
	}
	if v, ok := updates["is_primary"].(bool); ok {
		r.IsPrimary = v
	}
	return nil
}

func (m *mockResumeRepo) SetPrimaryResume(ctx context.Context, userID, resumeID string) error {
	if _, ok := m.resumes[resumeID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.primaryCalls = append(m.primaryCalls, resumeID)
	for id, r := range m.resumes {
		r.IsPrimary = id == resumeID
	}
	return nil
}

func (m *mockResumeRepo) DeleteResume(ctx context.Context, resumeID string) error {
	if _, ok := m.resumes[resumeID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.resumes, resumeID)
	m.deleted = append(m.deleted, resumeID)
	return nil
}

type mockUserResolver struct {
	user *models.User
	err  error
}

func (m *mockUserResolver) GetOrCreateDefaultUser(ctx context.Context, email, name string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil {
		m.user = &models.User{UserID: "user-0001", Email: email, Name: name}
	}
	return m.user, nil
}

type mockObjectDeleter struct {
	deleted []string
	err     error
}

func (m *mockObjectDeleter) DeleteFile(ctx context.Context, objectName string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, objectName)
	return nil
}

type mockAnalysisProvider struct {
	analysis *types.MatchAnalysis
	cached   bool
	err      error
}

func (m *mockAnalysisProvider) GetAnalysis(ctx context.Context, jobID, resumeID string) (*types.MatchAnalysis, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.analysis, m.cached, nil
}

type mockTailoring struct {
	record *models.TailoredResume
	result *types.TailoredResumeResult
	letter string
	err    error
}

func (m *mockTailoring) Tailor(ctx context.Context, resumeID, jobID string, keywords []string) (*models.TailoredResume, *types.TailoredResumeResult, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.record, m.result, nil
}

func (m *mockTailoring) CoverLetter(ctx context.Context, resumeID, jobID, instructions string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.letter, nil
}

type mockPreferencesRepo struct {
	prefs       *models.UserPreferences
	upsertCalls int
}

func (m *mockPreferencesRepo) GetPreferencesByUser(ctx context.Context, userID string) (*models.UserPreferences, error) {
	if m.prefs == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m.prefs
	return &copied, nil
}

func (m *mockPreferencesRepo) UpsertPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	m.upsertCalls++
	copied := *prefs
	m.prefs = &copied
	return nil
}

type mockApplicationRepo struct {
	apps    map[string]*models.Application
	created int
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*models.Application)}
}

func (m *mockApplicationRepo) CreateApplication(ctx context.Context, application *models.Application) error {
	if _, exists := m.apps[application.ApplicationID]; exists {
		return errors.New("duplicate application id")
	}
	copied := *application
	m.apps[application.ApplicationID] = &copied
	m.created++
	return nil
}

func (m *mockApplicationRepo) GetApplicationByID(ctx context.Context, applicationID string) (*models.Application, error) {
	a, ok := m.apps[applicationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockApplicationRepo) ListApplications(ctx context.Context) ([]models.Application, error) {
	out := make([]models.Application, 0, len(m.apps))
	for _, a := range m.apps {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockApplicationRepo) UpdateApplicationFields(ctx context.Context, applicationID string, updates map[string]interface{}) error {
	a, ok := m.apps[applicationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(string); ok {
		a.Status = v
	}
	if v, ok := updates["notes"].(string); ok {
		a.Notes = v
	}
	if v, ok := updates["applied_at"].(time.Time); ok {
		a.AppliedAt = &v
	}
	return nil
}

func (m *mockApplicationRepo) DeleteApplication(ctx context.Context, applicationID string) error {
	if _, ok := m.apps[applicationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.apps, applicationID)
	return nil
}

func sampleJob(id string) *models.Job {
	return &models.Job{
		JobID:        id,
		ExternalID:   fmt.Sprintf("remotive-%s", id),
		Title:        "Senior Go Engineer",
		Company:      "Acme GmbH",
		Description:  "自研调度系统，Go 技术栈",
		Location:     "Berlin",
		LocationType: string(types.LocationRemote),
		SourceBoard:  "remotive",
		SourceURL:    "https://remotive.com/jobs/" + id,
		PostedAt:     time.Now().Add(-48 * time.Hour),
	}
}

func sampleStoredResume(id, userID string) *models.Resume {
	return &models.Resume{
		ResumeID:  id,
		UserID:    userID,
		FileName:  "jane_doe.pdf",
		ObjectKey: "resume/" + id + "/original.pdf",
		FileType:  "pdf",
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		Version:   1,
	}
}
