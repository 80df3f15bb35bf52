package processor

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-go/internal/types"
)

var sampleProfile = &types.ResumeProfile{
	FullName: "Jane Doe",
	Email:    "jane@example.com",
	Skills:   []string{"Go", "MySQL"},
	Experience: []types.WorkExperience{
		{Title: "Engineer", Company: "Acme", StartDate: "2021-03"},
	},
}

// 长度超过最小文本阈值的示例简历文本
var sampleResumeText = strings.Repeat("Jane Doe backend engineer with Go and MySQL experience. ", 3)

func newTestProcessor(t *testing.T, store *mockResumeStore, objects *mockObjectStore, opts ...ResumeProcessorOption) *ResumeProcessor {
	t.Helper()
	base := []ResumeProcessorOption{WithResumeProcessorLogger(log.New(io.Discard, "", 0))}
	p, err := NewResumeProcessor(
		&mockExtractor{},
		&mockStructurer{profile: sampleProfile},
		objects,
		store,
		append(base, opts...)...,
	)
	require.NoError(t, err)
	return p
}

// TestResumeProcessorIngest 完整摄入：提取→清洗→LLM→上传→落库
func TestResumeProcessorIngest(t *testing.T) {
	store := newMockResumeStore()
	objects := newMockObjectStore()
	p := newTestProcessor(t, store, objects)

	resume, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte(sampleResumeText))
	require.NoError(t, err)
	require.NotNil(t, resume)

	assert.NotEmpty(t, resume.ResumeID)
	assert.Equal(t, "user-1", resume.UserID)
	assert.Equal(t, "pdf", resume.FileType)
	assert.Equal(t, "Jane Doe", resume.FullName)
	assert.Equal(t, 1, resume.Version)
	assert.Contains(t, resume.ObjectKey, resume.ResumeID)
	// 原始文件已经在对象存储里
	_, ok := objects.objects[resume.ObjectKey]
	assert.True(t, ok)
	// 落库成功
	stored, err := store.GetResumeByID(context.Background(), resume.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.FullName)
}

// TestResumeProcessorIngest_TextTooShort 清洗后不足50字符直接失败
func TestResumeProcessorIngest_TextTooShort(t *testing.T) {
	p := newTestProcessor(t, newMockResumeStore(), newMockObjectStore())

	_, err := p.Ingest(context.Background(), "user-1", "resume.txt", []byte("too short"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTextTooShort))
}

// TestResumeProcessorIngest_UnsupportedType 未知扩展名被拒绝
func TestResumeProcessorIngest_UnsupportedType(t *testing.T) {
	p := newTestProcessor(t, newMockResumeStore(), newMockObjectStore())

	_, err := p.Ingest(context.Background(), "user-1", "resume.png", []byte(sampleResumeText))
	assert.True(t, errors.Is(err, ErrUnsupportedFileType))

	_, err = p.Ingest(context.Background(), "user-1", "resume.pdf", nil)
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

// TestResumeProcessorIngest_PDFFallback 进程内PDF提取失败后回落到Tika
func TestResumeProcessorIngest_PDFFallback(t *testing.T) {
	store := newMockResumeStore()
	primary := &mockExtractor{err: errors.New("损坏的xref表")}
	fallback := &mockExtractor{text: sampleResumeText}

	p, err := NewResumeProcessor(primary, &mockStructurer{profile: sampleProfile}, newMockObjectStore(), store,
		WithFallbackExtractor(fallback),
		WithResumeProcessorLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	resume, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resume.FullName)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

// TestResumeProcessorIngest_DBFailureCleansUp 落库失败时回收已上传对象
func TestResumeProcessorIngest_DBFailureCleansUp(t *testing.T) {
	store := newMockResumeStore()
	store.createErr = errors.New("数据库连接断开")
	objects := newMockObjectStore()
	p := newTestProcessor(t, store, objects)

	_, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte(sampleResumeText))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailed))
	require.Len(t, objects.deleted, 1)
	assert.Empty(t, objects.objects)
}

// TestResumeProcessorIngest_Duplicate 同一文件重复上传返回已有简历，不再调用LLM
func TestResumeProcessorIngest_Duplicate(t *testing.T) {
	store := newMockResumeStore()
	structurer := &mockStructurer{profile: sampleProfile}
	dedup := newMockDedup()

	p, err := NewResumeProcessor(&mockExtractor{}, structurer, newMockObjectStore(), store,
		WithFileDedup(dedup),
		WithResumeProcessorLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	first, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte(sampleResumeText))
	require.NoError(t, err)
	assert.Equal(t, 1, structurer.calls)

	second, err := p.Ingest(context.Background(), "user-1", "copy-of-resume.pdf", []byte(sampleResumeText))
	require.NoError(t, err)
	assert.Equal(t, first.ResumeID, second.ResumeID)
	// 第二次上传没有触发新的LLM解析
	assert.Equal(t, 1, structurer.calls)
}

// TestResumeProcessorReparse 重新解析成功后version加一
func TestResumeProcessorReparse(t *testing.T) {
	store := newMockResumeStore()
	objects := newMockObjectStore()
	p := newTestProcessor(t, store, objects)

	resume, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte(sampleResumeText))
	require.NoError(t, err)
	require.Equal(t, 1, resume.Version)

	updated, err := p.Reparse(context.Background(), resume.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
}

// TestResumeProcessorReparse_FailureLeavesRowUntouched LLM失败时原有行不变
func TestResumeProcessorReparse_FailureLeavesRowUntouched(t *testing.T) {
	store := newMockResumeStore()
	objects := newMockObjectStore()
	structurer := &mockStructurer{profile: sampleProfile}

	p, err := NewResumeProcessor(&mockExtractor{}, structurer, objects, store,
		WithResumeProcessorLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)

	resume, err := p.Ingest(context.Background(), "user-1", "resume.pdf", []byte(sampleResumeText))
	require.NoError(t, err)

	structurer.err = errors.New("模型超时")
	_, err = p.Reparse(context.Background(), resume.ResumeID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMFailed))

	unchanged, err := store.GetResumeByID(context.Background(), resume.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.Version)
	assert.Equal(t, "Jane Doe", unchanged.FullName)
}

// TestResumeProcessorReparse_NotFound 不存在的简历返回ErrNotFound
func TestResumeProcessorReparse_NotFound(t *testing.T) {
	p := newTestProcessor(t, newMockResumeStore(), newMockObjectStore())

	_, err := p.Reparse(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
