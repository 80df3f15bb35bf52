package processor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-go/internal/constants"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

var sampleAnalysis = &types.MatchAnalysis{
	ConfidenceScore: 72,
	MatchedSkills:   []string{"Go"},
	MissingSkills:   []string{"Kafka"},
	Strengths:       []string{"Strong Go background."},
	Gaps:            []string{"No streaming experience."},
	Recommendation:  "apply",
}

func seedJobAndResume(jobs *mockJobStore, resumes *mockResumeStore) {
	jobs.jobs["job-1"] = &models.Job{
		JobID:       "job-1",
		Title:       "Go Engineer",
		Company:     "Acme",
		Description: "Build backend services",
	}
	resumes.resumes["resume-1"] = &models.Resume{
		ResumeID: "resume-1",
		FullName: "Jane Doe",
		Summary:  "Backend engineer",
	}
}

func newTestMatchService(t *testing.T, jobs *mockJobStore, resumes *mockResumeStore, cache *mockMatchCacheStore, analyzer *mockAnalyzer, opts ...MatchServiceOption) *MatchService {
	t.Helper()
	base := []MatchServiceOption{WithMatchServiceLogger(log.New(io.Discard, "", 0))}
	s, err := NewMatchService(jobs, resumes, cache, analyzer, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

// TestMatchServiceGetAnalysis_MissThenHit 首次未命中触发一次LLM调用，
// 第二次请求在新鲜度窗口内直接命中缓存
func TestMatchServiceGetAnalysis_MissThenHit(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	cache := &mockMatchCacheStore{}
	analyzer := &mockAnalyzer{analysis: sampleAnalysis}

	s := newTestMatchService(t, jobs, resumes, cache, analyzer)

	first, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 72, first.ConfidenceScore)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, 1, cache.replaceCalls)

	second, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	// 恰好一次LLM调用
	assert.Equal(t, 1, analyzer.calls)
}

// TestMatchServiceGetAnalysis_StaleRowRecomputed 过期缓存行触发新的LLM调用并被替换
func TestMatchServiceGetAnalysis_StaleRowRecomputed(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	analyzer := &mockAnalyzer{analysis: sampleAnalysis}

	staleRow, err := cacheRowFromAnalysis("job-1", "resume-1", &types.MatchAnalysis{ConfidenceScore: 10, Recommendation: "skip"})
	require.NoError(t, err)
	staleRow.CreatedAt = time.Now().Add(-25 * time.Hour)
	cache := &mockMatchCacheStore{row: staleRow}

	s := newTestMatchService(t, jobs, resumes, cache, analyzer)

	result, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 72, result.ConfidenceScore)
	assert.Equal(t, 1, analyzer.calls)
	// 旧行被整行替换
	assert.Equal(t, 72, cache.row.ConfidenceScore)
}

// TestMatchServiceGetAnalysis_HotCacheFirst Redis命中时不访问DB也不调用LLM
func TestMatchServiceGetAnalysis_HotCacheFirst(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	analyzer := &mockAnalyzer{analysis: sampleAnalysis}
	hot := newMockHotCache()
	hot.entries["job-1:resume-1"] = sampleAnalysis

	s := newTestMatchService(t, jobs, resumes, &mockMatchCacheStore{}, analyzer, WithHotCache(hot))

	result, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, sampleAnalysis, result)
	assert.Equal(t, 0, analyzer.calls)
}

// TestMatchServiceGetAnalysis_NotFound 岗位或简历缺失映射为ErrNotFound
func TestMatchServiceGetAnalysis_NotFound(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	analyzer := &mockAnalyzer{analysis: sampleAnalysis}
	s := newTestMatchService(t, jobs, resumes, &mockMatchCacheStore{}, analyzer)

	_, _, err := s.GetAnalysis(context.Background(), "missing-job", "resume-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	jobs.jobs["job-1"] = &models.Job{JobID: "job-1", Title: "x", Company: "y"}
	_, _, err = s.GetAnalysis(context.Background(), "job-1", "missing-resume")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, analyzer.calls)
}

// TestMatchServiceGetAnalysis_LLMFailureIsFatal LLM失败直接上抛，不写缓存
func TestMatchServiceGetAnalysis_LLMFailureIsFatal(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	analyzer := &mockAnalyzer{err: errors.New("模型不可用")}
	cache := &mockMatchCacheStore{}

	s := newTestMatchService(t, jobs, resumes, cache, analyzer)

	_, _, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMFailed))
	assert.Equal(t, 0, cache.replaceCalls)
}

// TestMatchServiceGetAnalysis_BackfillsHotCache 未命中计算后回填Redis
func TestMatchServiceGetAnalysis_BackfillsHotCache(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	hot := newMockHotCache()

	s := newTestMatchService(t, jobs, resumes, &mockMatchCacheStore{}, &mockAnalyzer{analysis: sampleAnalysis}, WithHotCache(hot))

	_, _, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.Equal(t, 1, hot.setCalls)

	// 第二次直接命中Redis
	_, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.True(t, cached)

	// 新计算的结果享有完整的新鲜度窗口
	assert.Equal(t, constants.MatchCacheFreshness, hot.lastTTL)
}

// TestMatchServiceGetAnalysis_DBRowBackfillKeepsRemainingTTL 从DB缓存行回填Redis时
// TTL只能是该行剩余的新鲜度，否则条目会在计算后最长2倍窗口内继续被热缓存命中
func TestMatchServiceGetAnalysis_DBRowBackfillKeepsRemainingTTL(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	analyzer := &mockAnalyzer{analysis: sampleAnalysis}
	hot := newMockHotCache()

	agedRow, err := cacheRowFromAnalysis("job-1", "resume-1", sampleAnalysis)
	require.NoError(t, err)
	agedRow.CreatedAt = time.Now().Add(-23 * time.Hour)
	cache := &mockMatchCacheStore{row: agedRow}

	s := newTestMatchService(t, jobs, resumes, cache, analyzer, WithHotCache(hot))

	_, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 0, analyzer.calls)
	require.Equal(t, 1, hot.setCalls)
	assert.LessOrEqual(t, hot.lastTTL, time.Hour)
	assert.Positive(t, hot.lastTTL)
}

// TestMatchServiceGetAnalysis_ExpiringRowSkipsBackfill 剩余新鲜度不足的行不应以非正TTL回填
func TestMatchServiceGetAnalysis_ExpiringRowSkipsBackfill(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	hot := newMockHotCache()

	agedRow, err := cacheRowFromAnalysis("job-1", "resume-1", sampleAnalysis)
	require.NoError(t, err)
	agedRow.CreatedAt = time.Now().Add(-time.Hour + time.Millisecond)
	cache := &mockMatchCacheStore{row: agedRow}

	s := newTestMatchService(t, jobs, resumes, cache, &mockAnalyzer{analysis: sampleAnalysis},
		WithHotCache(hot), WithFreshness(time.Hour))

	_, cached, err := s.GetAnalysis(context.Background(), "job-1", "resume-1")
	require.NoError(t, err)
	assert.True(t, cached)
	// 剩余窗口近乎为零，无论是否回填TTL都必须为正
	if hot.setCalls > 0 {
		assert.Positive(t, hot.lastTTL)
	}
}
