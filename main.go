package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"

	"jobhunt-go/internal/agent"
	"jobhunt-go/internal/api/handler"
	"jobhunt-go/internal/api/router"
	"jobhunt-go/internal/config"
	appLogger "jobhunt-go/internal/logger"
	"jobhunt-go/internal/parser"
	"jobhunt-go/internal/processor"
	"jobhunt-go/internal/scraper"
	"jobhunt-go/internal/storage"
)

// @title           JobHunt API
// @version         1.0
// @description     求职助手：岗位抓取、简历解析、匹配分析与投递跟踪
// @BasePath  /api/v1
func main() {
	// 加载.env（不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	initLogger(cfg)

	// 2. 初始化存储
	ctx := context.Background()
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("初始化存储管理器失败")
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil {
		appLogger.Fatal().Msg("MySQL未初始化，无法继续")
	}

	// 3. 组装业务组件
	handlers, err := buildHandlers(ctx, cfg, storageManager)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("组装业务组件失败")
	}

	// 4. 创建HTTP服务器并注册路由
	h := server.Default(server.WithHostPorts(cfg.Server.Address))
	router.RegisterRoutes(h, handlers)

	appLogger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动")
	go func() {
		h.Spin()
	}()

	// 5. 等待终止信号，优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}
	appLogger.Info().Msg("优雅退出完成")
}

// initLogger 初始化全局日志并接管Hertz内部日志
func initLogger(cfg *config.Config) {
	logConfig := appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}
	appLogger.Init(logConfig)
	appLogger.Logger = appLogger.Logger.With().
		Str("app", "jobhunt-go").
		Logger()
	appLogger.InitHertzLogger()
}

// buildHandlers 组装全部HTTP处理器及其依赖
func buildHandlers(ctx context.Context, cfg *config.Config, storageManager *storage.Storage) (*router.Handlers, error) {
	mysql := storageManager.MySQL
	componentLogger := log.New(os.Stderr, "[JobHunt] ", log.LstdFlags)

	// 招聘板抓取：搜索词在每次抓取时从用户偏好重新读取
	sourceTimeout := time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second
	adapters := []scraper.SourceAdapter{
		scraper.NewRemotiveAdapter(
			scraper.WithRemotiveURL(cfg.Scraper.RemotiveURL),
			scraper.WithRemotiveTimeout(sourceTimeout),
		),
		scraper.NewArbeitnowAdapter(
			scraper.WithArbeitnowURL(cfg.Scraper.ArbeitnowURL),
			scraper.WithArbeitnowTimeout(sourceTimeout),
		),
	}
	aggregator := scraper.NewAggregator(adapters, componentLogger)
	ingestor := processor.NewJobIngestor(aggregator, mysql, processor.NewPreferenceQuerySource(mysql), componentLogger)

	// LLM组件：解析、匹配、定制各自走任务专用模型
	if cfg.Aliyun.APIKey == "" {
		return nil, fmt.Errorf("未配置Aliyun API密钥")
	}
	structurer, err := buildStructurer(cfg, componentLogger)
	if err != nil {
		return nil, err
	}
	analyzer, err := buildAnalyzer(cfg, componentLogger)
	if err != nil {
		return nil, err
	}
	tailorer, letterWriter, err := buildTailorComponents(cfg, componentLogger)
	if err != nil {
		return nil, err
	}

	// 文本提取：eino PDF解析为主，Tika兜底（并承担DOCX）
	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化PDF提取器失败: %w", err)
	}
	resumeOpts := []processor.ResumeProcessorOption{
		processor.WithResumeProcessorLogger(componentLogger),
	}
	if cfg.Tika.ServerURL != "" {
		tika := parser.NewTikaExtractor(cfg.Tika.ServerURL,
			parser.WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second),
		)
		resumeOpts = append(resumeOpts, processor.WithFallbackExtractor(tika))
	}
	if storageManager.Redis != nil {
		resumeOpts = append(resumeOpts, processor.WithFileDedup(storageManager.Redis))
	}
	if storageManager.MinIO == nil {
		return nil, fmt.Errorf("MinIO未初始化，简历上传不可用")
	}
	resumeProcessor, err := processor.NewResumeProcessor(pdfExtractor, structurer, storageManager.MinIO, mysql, resumeOpts...)
	if err != nil {
		return nil, err
	}

	// 匹配分析服务（Redis热缓存可选）
	matchOpts := []processor.MatchServiceOption{
		processor.WithMatchServiceLogger(componentLogger),
	}
	if storageManager.Redis != nil {
		matchOpts = append(matchOpts, processor.WithHotCache(storageManager.Redis))
	}
	matchService, err := processor.NewMatchService(mysql, mysql, mysql, analyzer, matchOpts...)
	if err != nil {
		return nil, err
	}

	tailorService, err := processor.NewTailorService(mysql, mysql, mysql, mysql, tailorer,
		processor.WithCoverLetterWriter(letterWriter),
		processor.WithTailorServiceLogger(componentLogger),
	)
	if err != nil {
		return nil, err
	}

	var locker handler.ScrapeLocker
	if storageManager.Redis != nil {
		locker = storageManager.Redis
	}
	lockTTL := config.GetDuration(cfg.Scraper.LockTTL, 5*time.Minute)

	return &router.Handlers{
		Job:         handler.NewJobHandler(mysql, ingestor, locker, lockTTL, componentLogger),
		Resume:      handler.NewResumeHandler(resumeProcessor, mysql, mysql, storageManager.MinIO, componentLogger),
		Match:       handler.NewMatchHandler(matchService, tailorService, componentLogger),
		User:        handler.NewUserHandler(mysql, mysql, componentLogger),
		Application: handler.NewApplicationHandler(mysql, mysql, componentLogger),
	}, nil
}

// qwenModelForTask 按任务名选择模型并应用温度/输出长度配置
func qwenModelForTask(cfg *config.Config, task string, temperature float64, maxTokens int, componentLogger *log.Logger) (*agent.AliyunQwenChatModel, error) {
	modelOpts := []agent.QwenOption{
		agent.WithQwenLogger(componentLogger),
	}
	if temperature > 0 {
		modelOpts = append(modelOpts, agent.WithTemperature(float32(temperature)))
	}
	if maxTokens > 0 {
		modelOpts = append(modelOpts, agent.WithMaxTokens(maxTokens))
	}
	return agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.GetModelForTask(task), cfg.Aliyun.APIURL, modelOpts...)
}

func buildStructurer(cfg *config.Config, componentLogger *log.Logger) (*parser.LLMResumeParser, error) {
	model, err := qwenModelForTask(cfg, "resume_parser", cfg.ResumeParser.Temperature, cfg.ResumeParser.MaxTokens, componentLogger)
	if err != nil {
		return nil, fmt.Errorf("初始化简历解析模型失败: %w", err)
	}
	opts := []parser.ResumeParserOption{
		parser.WithResumeParserLogger(componentLogger),
	}
	if cfg.ResumeParser.PromptTemplate != "" {
		opts = append(opts, parser.WithResumePromptTemplate(cfg.ResumeParser.PromptTemplate))
	}
	if d := config.GetDuration(cfg.ResumeParser.ExtractionTimeout, 0); d > 0 {
		opts = append(opts, parser.WithResumeParserTimeout(d))
	}
	return parser.NewLLMResumeParser(model, opts...)
}

func buildAnalyzer(cfg *config.Config, componentLogger *log.Logger) (*parser.LLMMatchAnalyzer, error) {
	model, err := qwenModelForTask(cfg, "match_analyzer", cfg.MatchAnalyzer.Temperature, cfg.MatchAnalyzer.MaxTokens, componentLogger)
	if err != nil {
		return nil, fmt.Errorf("初始化匹配分析模型失败: %w", err)
	}
	opts := []parser.MatchAnalyzerOption{
		parser.WithMatchLogger(componentLogger),
	}
	if cfg.MatchAnalyzer.PromptTemplate != "" {
		opts = append(opts, parser.WithMatchPromptTemplate(cfg.MatchAnalyzer.PromptTemplate))
	}
	if d := config.GetDuration(cfg.MatchAnalyzer.EvalTimeout, 0); d > 0 {
		opts = append(opts, parser.WithMatchTimeout(d))
	}
	return parser.NewLLMMatchAnalyzer(model, opts...)
}

func buildTailorComponents(cfg *config.Config, componentLogger *log.Logger) (*parser.LLMResumeTailor, *parser.LLMCoverLetterWriter, error) {
	model, err := qwenModelForTask(cfg, "resume_tailor", cfg.ResumeTailor.Temperature, cfg.ResumeTailor.MaxTokens, componentLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化简历定制模型失败: %w", err)
	}
	opts := []parser.ResumeTailorOption{
		parser.WithTailorLogger(componentLogger),
	}
	if d := config.GetDuration(cfg.ResumeTailor.TailorTimeout, 0); d > 0 {
		opts = append(opts, parser.WithTailorTimeout(d))
	}
	tailorer, err := parser.NewLLMResumeTailor(model, opts...)
	if err != nil {
		return nil, nil, err
	}
	letterWriter, err := parser.NewLLMCoverLetterWriter(model, componentLogger)
	if err != nil {
		return nil, nil, err
	}
	return tailorer, letterWriter, nil
}
