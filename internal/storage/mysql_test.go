package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/types"
)

// TestScrapedJobUpdates 再次抓到的岗位更新全部易变字段（含source_board），
// 不触碰主键、external_id和创建时间
func TestScrapedJobUpdates(t *testing.T) {
	salaryMin, salaryMax := 60000, 80000
	requirementsJSON, err := models.ToJSON([]string{"go", "mysql"})
	require.NoError(t, err)

	postedAt := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	updates := scrapedJobUpdates(types.ScrapedJob{
		Title:        "Senior Go Engineer",
		Company:      "Acme",
		Description:  "Build services",
		Location:     "Europe",
		LocationType: types.LocationRemote,
		SalaryMin:    &salaryMin,
		SalaryMax:    &salaryMax,
		Currency:     "USD",
		SourceURL:    "https://remotive.com/jobs/12345",
		SourceBoard:  "Remotive",
		ExternalID:   "remotive-12345",
		PostedAt:     postedAt,
	}, requirementsJSON)

	assert.Equal(t, "Senior Go Engineer", updates["title"])
	assert.Equal(t, "remote", updates["location_type"])
	assert.Equal(t, "Remotive", updates["source_board"])
	assert.Equal(t, postedAt, updates["posted_at"])
	assert.Equal(t, &salaryMin, updates["salary_min"])

	// 不可变字段不在更新集里
	assert.NotContains(t, updates, "job_id")
	assert.NotContains(t, updates, "external_id")
	assert.NotContains(t, updates, "created_at")
}
