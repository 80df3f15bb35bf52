package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobhunt-go/internal/config"
	"jobhunt-go/internal/storage/models"
	"jobhunt-go/internal/tracing"
	"jobhunt-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("jobhunt-go/storage/mysql")

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	dbSystem       string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	// 为各种操作类型注册回调
	cb := db.Callback()

	// 为所有CRUD操作注册Before和After回调
	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		// 从DB获取上下文
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		// 获取操作表名，如果为空则使用"unknown"
		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		// 创建一个新的span
		spanName := fmt.Sprintf("%s %s", operation, tableName)
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}

		// 获取SQL语句（如果有），截断避免超长属性
		sqlStatement := db.Statement.SQL.String()
		if sqlStatement != "" {
			opts = append(opts, trace.WithAttributes(
				attribute.String("db.statement", tracing.SafeSQL(sqlStatement)),
			))
		}

		newCtx, span := p.tracer.Start(ctx, spanName, opts...)

		// 将span保存在DB上下文中，以便在after回调中使用
		db.Statement.Context = context.WithValue(newCtx, "otel-span", span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		// 从DB上下文中获取span
		span, ok := db.Statement.Context.Value("otel-span").(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Statement.RowsAffected > 0 {
			span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		} else {
			span.SetAttributes(attribute.Int64("db.rows_affected", 0))
		}

		// 记录错误（如果有），但正确处理ErrRecordNotFound
		if db.Error != nil {
			if db.Error == gorm.ErrRecordNotFound {
				// ErrRecordNotFound 是业务逻辑正常情况的一部分，不应作为错误处理
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.SetAttributes(attribute.String("error.message", db.Error.Error()))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		dbSystem:       "mysql",
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否禁用错误跳过
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// JobSearchFilter 岗位搜索条件。零值字段不参与过滤。
type JobSearchFilter struct {
	Search       string // 对标题/公司/描述做子串匹配
	Location     string // 地点子串匹配
	LocationType string // 精确匹配
	SalaryMin    *int   // 过滤 salary_min >= 该值的岗位
	Limit        int
	Offset       int
}

// UpsertResult 单条岗位入库的结果
type UpsertResult struct {
	Created bool
	JobID   string
}

// Database 关系数据库接口
type Database interface {
	// DB 返回GORM数据库连接实例
	DB() *gorm.DB

	// Close 关闭数据库连接
	Close() error
}

// 确保MySQL实现了Database接口
var _ Database = (*MySQL)(nil)

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true, // 开启预编译语句缓存
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	// 注册OpenTelemetry追踪插件
	tracingPlugin := NewGormTracingPlugin(cfg.Database).WithDisableErrSkip(true)
	if err := db.Use(tracingPlugin); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	// 使用 GORM 的 AutoMigrate 功能自动迁移表结构
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	currentLogger := m.db.Logger

	// 创建一个静默的logger以关闭迁移期间的SQL日志打印
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Resume{},
		&models.JobMatchCache{},
		&models.UserPreferences{},
		&models.TailoredResume{},
		&models.Application{},
	)

	m.db = m.db.Session(&gorm.Session{Logger: currentLogger})

	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	log.Println("GORM数据库结构迁移成功")
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// GetOrCreateDefaultUser 获取单用户模式下的默认用户，不存在则创建。
// 上层通过 OwnerResolver 间接使用，避免把单用户假设散落到各处。
func (m *MySQL) GetOrCreateDefaultUser(ctx context.Context, email, name string) (*models.User, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.GetOrCreateDefaultUser")
	defer span.End()

	var user models.User
	err := m.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		span.SetAttributes(attribute.Bool("user.found", true))
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query user")
		return nil, fmt.Errorf("查询默认用户失败: %w", err)
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	user = models.User{
		UserID: newUUID.String(),
		Email:  email,
		Name:   name,
	}
	if err := m.db.WithContext(ctx).Create(&user).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create user")
		return nil, fmt.Errorf("创建默认用户失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("user.found", false), attribute.String("user.id", user.UserID))
	return &user, nil
}

// FindJobByExternalID 通过外部唯一ID查找岗位
func (m *MySQL) FindJobByExternalID(ctx context.Context, externalID string) (*models.Job, error) {
	var job models.Job
	if err := m.db.WithContext(ctx).Where("external_id = ?", externalID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpsertScrapedJob 按 external_id 入库单条抓取记录。
// 已存在时只更新易变字段（标题/描述/薪资等），保留原主键和创建时间。
func (m *MySQL) UpsertScrapedJob(ctx context.Context, scraped types.ScrapedJob) (*UpsertResult, error) {
	requirementsJSON, err := models.ToJSON(scraped.Requirements)
	if err != nil {
		return nil, fmt.Errorf("序列化岗位要求失败: %w", err)
	}

	existing, err := m.FindJobByExternalID(ctx, scraped.ExternalID)
	if err == nil {
		if err := m.db.WithContext(ctx).Model(&models.Job{}).
			Where("job_id = ?", existing.JobID).
			Updates(scrapedJobUpdates(scraped, requirementsJSON)).Error; err != nil {
			return nil, fmt.Errorf("更新岗位失败: %w", err)
		}
		return &UpsertResult{Created: false, JobID: existing.JobID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	job := models.Job{
		JobID:            newUUID.String(),
		Title:            scraped.Title,
		Company:          scraped.Company,
		Description:      scraped.Description,
		RequirementsJSON: requirementsJSON,
		Location:         scraped.Location,
		LocationType:     string(scraped.LocationType),
		SalaryMin:        scraped.SalaryMin,
		SalaryMax:        scraped.SalaryMax,
		Currency:         scraped.Currency,
		SourceURL:        scraped.SourceURL,
		SourceBoard:      scraped.SourceBoard,
		ExternalID:       scraped.ExternalID,
		PostedAt:         scraped.PostedAt,
	}
	if err := m.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("创建岗位失败: %w", err)
	}
	return &UpsertResult{Created: true, JobID: job.JobID}, nil
}

// scrapedJobUpdates 已存在岗位的易变字段更新集。
// 主键、external_id和创建时间不在其中。
func scrapedJobUpdates(scraped types.ScrapedJob, requirementsJSON datatypes.JSON) map[string]interface{} {
	return map[string]interface{}{
		"title":             scraped.Title,
		"company":           scraped.Company,
		"description":       scraped.Description,
		"requirements_json": requirementsJSON,
		"location":          scraped.Location,
		"location_type":     string(scraped.LocationType),
		"salary_min":        scraped.SalaryMin,
		"salary_max":        scraped.SalaryMax,
		"currency":          scraped.Currency,
		"source_url":        scraped.SourceURL,
		"source_board":      scraped.SourceBoard,
		"posted_at":         scraped.PostedAt,
	}
}

// SearchJobs 按条件分页搜索岗位，按发布时间倒序返回，附带总数
func (m *MySQL) SearchJobs(ctx context.Context, filter JobSearchFilter) ([]models.Job, int64, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SearchJobs")
	defer span.End()

	query := m.db.WithContext(ctx).Model(&models.Job{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR company LIKE ? OR description LIKE ?", like, like, like)
	}
	if filter.Location != "" {
		query = query.Where("location LIKE ?", "%"+filter.Location+"%")
	}
	if filter.LocationType != "" {
		query = query.Where("location_type = ?", filter.LocationType)
	}
	if filter.SalaryMin != nil {
		// 只与岗位声明的薪资下限比较，salary_min 为 NULL 的岗位被过滤掉
		query = query.Where("salary_min >= ?", *filter.SalaryMin)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("统计岗位数量失败: %w", err)
	}

	var jobs []models.Job
	err := query.Order("posted_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&jobs).Error
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("搜索岗位失败: %w", err)
	}

	span.SetAttributes(attribute.Int64("jobs.total", total), attribute.Int("jobs.returned", len(jobs)))
	return jobs, total, nil
}

// GetJobByID 通过 JobID 获取岗位记录
func (m *MySQL) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateResume 创建简历记录
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume) error {
	return m.db.WithContext(ctx).Create(resume).Error
}

// GetResumeByID 通过 ResumeID 获取简历记录
func (m *MySQL) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	if err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&resume).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

// ListResumesByUser 列出用户的全部简历，主简历在前，其余按更新时间倒序
func (m *MySQL) ListResumesByUser(ctx context.Context, userID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC, updated_at DESC").
		Find(&resumes).Error
	if err != nil {
		return nil, fmt.Errorf("查询简历列表失败: %w", err)
	}
	return resumes, nil
}

// UpdateResumeFields 更新简历的部分字段
func (m *MySQL) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.Resume{}).
		Where("resume_id = ?", resumeID).Updates(updates).Error
}

// SetPrimaryResume 在事务中将指定简历设为主简历，同时清除同用户下其他简历的主标记。
// 保证任一时刻同一用户至多一条主简历。
func (m *MySQL) SetPrimaryResume(ctx context.Context, userID, resumeID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Resume{}).
			Where("user_id = ? AND resume_id <> ?", userID, resumeID).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("清除其他主简历标记失败: %w", err)
		}
		result := tx.Model(&models.Resume{}).
			Where("resume_id = ? AND user_id = ?", resumeID, userID).
			Update("is_primary", true)
		if result.Error != nil {
			return fmt.Errorf("设置主简历失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteResume 删除简历记录
func (m *MySQL) DeleteResume(ctx context.Context, resumeID string) error {
	result := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).Delete(&models.Resume{})
	if result.Error != nil {
		return fmt.Errorf("删除简历失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetMatchCache 获取岗位-简历匹配缓存行，不存在时返回 gorm.ErrRecordNotFound
func (m *MySQL) GetMatchCache(ctx context.Context, jobID, resumeID string) (*models.JobMatchCache, error) {
	var cache models.JobMatchCache
	err := m.db.WithContext(ctx).
		Where("job_id = ? AND resume_id = ?", jobID, resumeID).
		First(&cache).Error
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

// ReplaceMatchCache 在事务中整行替换匹配缓存（先删旧行再插新行），
// 维持 (job_id, resume_id) 唯一的不变量。
func (m *MySQL) ReplaceMatchCache(ctx context.Context, cache *models.JobMatchCache) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ReplaceMatchCache", trace.WithAttributes(
		attribute.String("match.job_id", cache.JobID),
		attribute.String("match.resume_id", cache.ResumeID),
	))
	defer span.End()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ? AND resume_id = ?", cache.JobID, cache.ResumeID).
			Delete(&models.JobMatchCache{}).Error; err != nil {
			return fmt.Errorf("删除旧匹配缓存失败: %w", err)
		}
		if err := tx.Create(cache).Error; err != nil {
			return fmt.Errorf("写入匹配缓存失败: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// GetPreferencesByUser 获取用户偏好，不存在时返回 gorm.ErrRecordNotFound
func (m *MySQL) GetPreferencesByUser(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := m.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpsertPreferences 创建或更新用户偏好，依赖 user_id 的唯一索引
func (m *MySQL) UpsertPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	if prefs.PreferencesID == "" {
		newUUID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成UUIDv7失败: %w", err)
		}
		prefs.PreferencesID = newUUID.String()
	}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"desired_titles_json", "desired_locations_json", "desired_salary_min",
			"remote_preference", "search_queries_json", "auto_apply", "daily_application_limit",
		}),
	}).Create(prefs).Error
}

// CreateTailoredResume 保存一次简历定制结果
func (m *MySQL) CreateTailoredResume(ctx context.Context, tailored *models.TailoredResume) error {
	return m.db.WithContext(ctx).Create(tailored).Error
}

// ListTailoredResumes 列出某简历的全部定制版本
func (m *MySQL) ListTailoredResumes(ctx context.Context, resumeID string) ([]models.TailoredResume, error) {
	var tailored []models.TailoredResume
	err := m.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("created_at DESC").
		Find(&tailored).Error
	if err != nil {
		return nil, fmt.Errorf("查询定制简历列表失败: %w", err)
	}
	return tailored, nil
}

// CreateApplication 创建投递记录
func (m *MySQL) CreateApplication(ctx context.Context, app *models.Application) error {
	return m.db.WithContext(ctx).Create(app).Error
}

// GetApplicationByID 通过ID获取投递记录
func (m *MySQL) GetApplicationByID(ctx context.Context, applicationID string) (*models.Application, error) {
	var app models.Application
	if err := m.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplications 列出全部投递记录，按创建时间倒序
func (m *MySQL) ListApplications(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("查询投递列表失败: %w", err)
	}
	return apps, nil
}

// UpdateApplicationFields 更新投递记录的部分字段
func (m *MySQL) UpdateApplicationFields(ctx context.Context, applicationID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := m.db.WithContext(ctx).Model(&models.Application{}).
		Where("application_id = ?", applicationID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteApplication 删除投递记录
func (m *MySQL) DeleteApplication(ctx context.Context, applicationID string) error {
	result := m.db.WithContext(ctx).Where("application_id = ?", applicationID).Delete(&models.Application{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
