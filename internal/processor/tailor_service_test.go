package processor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-go/internal/types"
)

var sampleTailorResult = &types.TailoredResumeResult{
	TailoredResume: types.ResumeProfile{FullName: "Jane Doe", Summary: "Tailored summary"},
	Changes: []types.TailorChange{
		{Section: "summary", Type: "rewrite", Truthful: true},
	},
	KeywordsApplied:    []types.KeywordApplied{{Term: "payments", Location: "summary"}},
	KeywordsNotApplied: []types.KeywordSkipped{{Term: "Kafka", Reason: "no evidence"}},
	HonestyScore:       92,
}

func newTestTailorService(t *testing.T, jobs *mockJobStore, resumes *mockResumeStore, cache *mockMatchCacheStore, tailored *mockTailoredStore, tailorer *mockTailorer, opts ...TailorServiceOption) *TailorService {
	t.Helper()
	base := []TailorServiceOption{WithTailorServiceLogger(log.New(io.Discard, "", 0))}
	s, err := NewTailorService(jobs, resumes, cache, tailored, tailorer, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

// TestTailorServiceTailor 定制成功并落库，审计字段齐全
func TestTailorServiceTailor(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	tailored := &mockTailoredStore{}
	tailorer := &mockTailorer{result: sampleTailorResult}

	s := newTestTailorService(t, jobs, resumes, &mockMatchCacheStore{}, tailored, tailorer)

	row, result, err := s.Tailor(context.Background(), "resume-1", "job-1", nil)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 92, result.HonestyScore)
	assert.NotEmpty(t, row.TailoredID)
	assert.Equal(t, "resume-1", row.ResumeID)
	assert.Equal(t, "job-1", row.JobID)
	assert.Equal(t, 92, row.HonestyScore)
	assert.NotEmpty(t, row.ContentJSON)
	assert.NotEmpty(t, row.ChangesJSON)
	require.Len(t, tailored.rows, 1)
	// 没有历史分析和点名关键词时，上下文为空串
	assert.Empty(t, tailorer.lastContextJSON)
}

// TestTailorServiceTailor_PassesAnalysisContext 历史匹配分析和点名关键词进入LLM上下文
func TestTailorServiceTailor_PassesAnalysisContext(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)

	row, err := cacheRowFromAnalysis("job-1", "resume-1", sampleAnalysis)
	require.NoError(t, err)
	cache := &mockMatchCacheStore{row: row}
	tailorer := &mockTailorer{result: sampleTailorResult}

	s := newTestTailorService(t, jobs, resumes, cache, &mockTailoredStore{}, tailorer)

	_, _, err = s.Tailor(context.Background(), "resume-1", "job-1", []string{"Kafka"})
	require.NoError(t, err)
	assert.Contains(t, tailorer.lastContextJSON, `"requested_keywords":["Kafka"]`)
	assert.Contains(t, tailorer.lastContextJSON, `"confidence_score":72`)
}

// TestTailorServiceTailor_NotFound 简历或岗位缺失映射为ErrNotFound
func TestTailorServiceTailor_NotFound(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	s := newTestTailorService(t, jobs, resumes, &mockMatchCacheStore{}, &mockTailoredStore{}, &mockTailorer{result: sampleTailorResult})

	_, _, err := s.Tailor(context.Background(), "missing", "job-1", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestTailorServiceTailor_LLMFailure LLM失败不落库
func TestTailorServiceTailor_LLMFailure(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	tailored := &mockTailoredStore{}

	s := newTestTailorService(t, jobs, resumes, &mockMatchCacheStore{}, tailored, &mockTailorer{err: errors.New("模型超时")})

	_, _, err := s.Tailor(context.Background(), "resume-1", "job-1", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMFailed))
	assert.Empty(t, tailored.rows)
}

// TestTailorServiceCoverLetter 求职信生成
func TestTailorServiceCoverLetter(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)

	s := newTestTailorService(t, jobs, resumes, &mockMatchCacheStore{}, &mockTailoredStore{}, &mockTailorer{result: sampleTailorResult},
		WithCoverLetterWriter(&mockLetterWriter{letter: "Dear Hiring Team, ..."}))

	letter, err := s.CoverLetter(context.Background(), "resume-1", "job-1", "")
	require.NoError(t, err)
	assert.Contains(t, letter, "Dear Hiring Team")
}

// TestTailorServiceCoverLetter_NoWriter 未配置生成器时返回错误
func TestTailorServiceCoverLetter_NoWriter(t *testing.T) {
	jobs := newMockJobStore()
	resumes := newMockResumeStore()
	seedJobAndResume(jobs, resumes)
	s := newTestTailorService(t, jobs, resumes, &mockMatchCacheStore{}, &mockTailoredStore{}, &mockTailorer{result: sampleTailorResult})

	_, err := s.CoverLetter(context.Background(), "resume-1", "job-1", "")
	assert.Error(t, err)
}
