package processor

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobhunt-go/internal/storage"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// mockJobStore 测试用岗位存储
type mockJobStore struct {
	jobs        map[string]*models.Job
	upsertErrOn map[string]error // 按external_id注入失败
	created     map[string]bool  // 已存在的external_id集合
	upsertCalls int
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{
		jobs:        make(map[string]*models.Job),
		upsertErrOn: make(map[string]error),
		created:     make(map[string]bool),
	}
}

func (m *mockJobStore) UpsertScrapedJob(ctx context.Context, scraped types.ScrapedJob) (*storage.UpsertResult, error) {
	m.upsertCalls++
	if err, ok := m.upsertErrOn[scraped.ExternalID]; ok {
		return nil, err
	}
	if m.created[scraped.ExternalID] {
		return &storage.UpsertResult{Created: false, JobID: "job-" + scraped.ExternalID}, nil
	}
	m.created[scraped.ExternalID] = true
	return &storage.UpsertResult{Created: true, JobID: "job-" + scraped.ExternalID}, nil
}

func (m *mockJobStore) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	if job, ok := m.jobs[jobID]; ok {
		return job, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// mockResumeStore 测试用简历存储
type mockResumeStore struct {
	resumes   map[string]*models.Resume
	createErr error
	updateErr error
	updates   map[string]interface{}
}

func newMockResumeStore() *mockResumeStore {
	return &mockResumeStore{resumes: make(map[string]*models.Resume)}
}

func (m *mockResumeStore) CreateResume(ctx context.Context, resume *models.Resume) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *resume
	m.resumes[resume.ResumeID] = &cp
	return nil
}

func (m *mockResumeStore) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	if r, ok := m.resumes[resumeID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResumeStore) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.resumes[resumeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.updates = updates
	if v, ok := updates["full_name"].(string); ok {
		r.FullName = v
	}
	// version使用gorm.Expr，这里直接模拟加一
	if _, ok := updates["version"]; ok {
		r.Version++
	}
	return nil
}

// mockMatchCacheStore 测试用匹配缓存存储
type mockMatchCacheStore struct {
	row          *models.JobMatchCache
	replaceCalls int
}

func (m *mockMatchCacheStore) GetMatchCache(ctx context.Context, jobID, resumeID string) (*models.JobMatchCache, error) {
	if m.row == nil || m.row.JobID != jobID || m.row.ResumeID != resumeID {
		return nil, gorm.ErrRecordNotFound
	}
	return m.row, nil
}

func (m *mockMatchCacheStore) ReplaceMatchCache(ctx context.Context, cache *models.JobMatchCache) error {
	m.replaceCalls++
	m.row = cache
	if cache.CreatedAt.IsZero() {
		cache.CreatedAt = time.Now()
	}
	return nil
}

// mockTailoredStore 测试用定制简历存储
type mockTailoredStore struct {
	rows      []*models.TailoredResume
	createErr error
}

func (m *mockTailoredStore) CreateTailoredResume(ctx context.Context, tailored *models.TailoredResume) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows = append(m.rows, tailored)
	return nil
}

// mockHotCache 测试用Redis热缓存
type mockHotCache struct {
	entries  map[string]*types.MatchAnalysis
	getCalls int
	setCalls int
	lastTTL  time.Duration
}

func newMockHotCache() *mockHotCache {
	return &mockHotCache{entries: make(map[string]*types.MatchAnalysis)}
}

func (m *mockHotCache) GetMatchAnalysis(ctx context.Context, jobID, resumeID string) (*types.MatchAnalysis, error) {
	m.getCalls++
	if a, ok := m.entries[jobID+":"+resumeID]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (m *mockHotCache) SetMatchAnalysis(ctx context.Context, jobID, resumeID string, analysis *types.MatchAnalysis, ttl time.Duration) error {
	m.setCalls++
	m.lastTTL = ttl
	m.entries[jobID+":"+resumeID] = analysis
	return nil
}

// mockObjectStore 测试用对象存储
type mockObjectStore struct {
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte)}
}

func (m *mockObjectStore) UploadResumeFileStreaming(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	if m.uploadErr != nil {
		return "", "", m.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", "", err
	}
	key := "resume/" + resumeID + "/original" + fileExt
	m.objects[key] = data
	return key, "mock-md5", nil
}

func (m *mockObjectStore) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	if data, ok := m.objects[objectKey]; ok {
		return data, nil
	}
	return nil, storage.ErrNotFound
}

func (m *mockObjectStore) DeleteFile(ctx context.Context, objectName string) error {
	m.deleted = append(m.deleted, objectName)
	delete(m.objects, objectName)
	return nil
}

// mockExtractor 测试用文本提取器
type mockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *mockExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	m.calls++
	if m.err != nil {
		return "", nil, m.err
	}
	if m.text != "" {
		return m.text, nil, nil
	}
	return string(bytes.TrimSpace(data)), nil, nil
}

// mockStructurer 测试用简历结构化器
type mockStructurer struct {
	profile *types.ResumeProfile
	err     error
	calls   int
}

func (m *mockStructurer) Parse(ctx context.Context, resumeText string) (*types.ResumeProfile, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

// mockAnalyzer 测试用匹配分析器
type mockAnalyzer struct {
	analysis *types.MatchAnalysis
	err      error
	calls    int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, jobDescription, resumeJSON string) (*types.MatchAnalysis, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.analysis, nil
}

// mockTailorer 测试用简历定制器
type mockTailorer struct {
	result          *types.TailoredResumeResult
	err             error
	lastContextJSON string
}

func (m *mockTailorer) Tailor(ctx context.Context, jobDescription, resumeJSON, analysisJSON string) (*types.TailoredResumeResult, error) {
	m.lastContextJSON = analysisJSON
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockLetterWriter 测试用求职信生成器
type mockLetterWriter struct {
	letter string
	err    error
}

func (m *mockLetterWriter) Write(ctx context.Context, jobDescription, resumeJSON, instructions string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.letter, nil
}

// mockDedup 测试用文件去重
type mockDedup struct {
	seen    map[string]string // md5 -> resumeID
	removed []string
}

func newMockDedup() *mockDedup {
	return &mockDedup{seen: make(map[string]string)}
}

func (m *mockDedup) CheckAndSetResumeFileMD5(ctx context.Context, md5Hex string, resumeID string, ttl time.Duration) (bool, string, error) {
	if existing, ok := m.seen[md5Hex]; ok {
		return true, existing, nil
	}
	m.seen[md5Hex] = resumeID
	return false, "", nil
}

func (m *mockDedup) RemoveResumeFileMD5(ctx context.Context, md5Hex string) error {
	m.removed = append(m.removed, md5Hex)
	delete(m.seen, md5Hex)
	return nil
}

// mockScraper 测试用抓取器
type mockScraper struct {
	jobs        []types.ScrapedJob
	seenQueries [][]string
}

func (m *mockScraper) ScrapeAll(ctx context.Context, queries []string) []types.ScrapedJob {
	m.seenQueries = append(m.seenQueries, queries)
	return m.jobs
}

// mockPreferenceReader 测试用的默认用户与偏好存储
type mockPreferenceReader struct {
	user  *models.User
	prefs *models.UserPreferences
}

func newMockPreferenceReader() *mockPreferenceReader {
	return &mockPreferenceReader{}
}

func (m *mockPreferenceReader) GetOrCreateDefaultUser(ctx context.Context, email, name string) (*models.User, error) {
	if m.user == nil {
		m.user = &models.User{UserID: "user-0001", Email: email, Name: name}
	}
	return m.user, nil
}

func (m *mockPreferenceReader) GetPreferencesByUser(ctx context.Context, userID string) (*models.UserPreferences, error) {
	if m.prefs == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.prefs, nil
}

func (m *mockPreferenceReader) setSearchQueries(t *testing.T, queries []string) {
	t.Helper()
	j, err := models.ToJSON(queries)
	require.NoError(t, err)
	m.prefs = &models.UserPreferences{PreferencesID: "prefs-0001", UserID: "user-0001", SearchQueriesJSON: j}
}

// mockQuerySource 测试用搜索词来源
type mockQuerySource struct {
	queries []string
	err     error
	calls   int
}

func (m *mockQuerySource) SearchQueries(ctx context.Context) ([]string, error) {
	m.calls++
	return m.queries, m.err
}
