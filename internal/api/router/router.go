package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"jobhunt-go/internal/api/handler"
)

// Handlers 汇总所有路由依赖的处理器
type Handlers struct {
	Job         *handler.JobHandler
	Resume      *handler.ResumeHandler
	Match       *handler.MatchHandler
	User        *handler.UserHandler
	Application *handler.ApplicationHandler
}

// RegisterRoutes 注册全部HTTP路由
func RegisterRoutes(h *server.Hertz, hs *Handlers) {
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	v1 := h.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("/scrape", hs.Job.HandleScrapeJobs)
			jobs.GET("", hs.Job.HandleListJobs)
			jobs.GET("/:job_id", hs.Job.HandleGetJob)
		}

		resumes := v1.Group("/resumes")
		{
			resumes.POST("", hs.Resume.HandleUploadResume)
			resumes.GET("", hs.Resume.HandleListResumes)
			resumes.GET("/:resume_id", hs.Resume.HandleGetResume)
			resumes.PUT("/:resume_id", hs.Resume.HandleUpdateResume)
			resumes.DELETE("/:resume_id", hs.Resume.HandleDeleteResume)
			resumes.POST("/:resume_id/parse", hs.Resume.HandleReparseResume)
			resumes.POST("/:resume_id/tailor", hs.Match.HandleTailorResume)
			resumes.POST("/:resume_id/cover-letter", hs.Match.HandleCoverLetter)
		}

		v1.GET("/matches/:job_id/:resume_id", hs.Match.HandleGetMatch)

		user := v1.Group("/user")
		{
			user.GET("/preferences", hs.User.HandleGetPreferences)
			user.PUT("/preferences", hs.User.HandleUpdatePreferences)
		}

		applications := v1.Group("/applications")
		{
			applications.GET("", hs.Application.HandleListApplications)
			applications.POST("", hs.Application.HandleCreateApplication)
			applications.PUT("/:application_id", hs.Application.HandleUpdateApplication)
			applications.DELETE("/:application_id", hs.Application.HandleDeleteApplication)
		}
	}
}
