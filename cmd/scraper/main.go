package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"jobhunt-go/internal/config"
	"jobhunt-go/internal/processor"
	"jobhunt-go/internal/scraper"
	"jobhunt-go/internal/storage"
)

// staticQueries 把命令行-q参数包装成固定的搜索词来源
type staticQueries []string

func (s staticQueries) SearchQueries(ctx context.Context) ([]string, error) {
	return s, nil
}

// 一次性抓取工具：从招聘板拉取岗位并入库，打印统计后退出。
// 适合配合cron做定时抓取，不经过HTTP服务。
func main() {
	var (
		configPath string
		sources    []string
		queries    []string
		dryRun     bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时按默认位置查找")
	pflag.StringSliceVarP(&sources, "source", "s", []string{"remotive", "arbeitnow"}, "启用的招聘板，可重复指定")
	pflag.StringSliceVarP(&queries, "query", "q", nil, "搜索词过滤，可重复指定")
	pflag.BoolVar(&dryRun, "dry-run", false, "只抓取去重并打印结果，不写数据库")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger := log.New(os.Stderr, "[Scraper] ", log.LstdFlags)
	sourceTimeout := time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second

	var adapters []scraper.SourceAdapter
	for _, name := range sources {
		switch name {
		case "remotive":
			adapters = append(adapters, scraper.NewRemotiveAdapter(
				scraper.WithRemotiveURL(cfg.Scraper.RemotiveURL),
				scraper.WithRemotiveTimeout(sourceTimeout),
			))
		case "arbeitnow":
			adapters = append(adapters, scraper.NewArbeitnowAdapter(
				scraper.WithArbeitnowURL(cfg.Scraper.ArbeitnowURL),
				scraper.WithArbeitnowTimeout(sourceTimeout),
			))
		default:
			log.Fatalf("未知招聘板: %s（支持 remotive, arbeitnow）", name)
		}
	}
	if len(adapters) == 0 {
		log.Fatal("至少需要启用一个招聘板")
	}

	aggregator := scraper.NewAggregator(adapters, logger)
	ctx := context.Background()

	if dryRun {
		jobs := scraper.Deduplicate(aggregator.ScrapeAll(ctx, queries))
		for _, job := range jobs {
			line, _ := json.Marshal(job)
			fmt.Println(string(line))
		}
		fmt.Fprintf(os.Stderr, "dry-run: %d 条去重后的岗位\n", len(jobs))
		return
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil {
		log.Fatal("MySQL未初始化，无法入库")
	}

	// -q显式给出时覆盖偏好，否则按用户偏好中的搜索词过滤
	var querySource processor.SearchQuerySource = processor.NewPreferenceQuerySource(storageManager.MySQL)
	if len(queries) > 0 {
		querySource = staticQueries(queries)
	}
	ingestor := processor.NewJobIngestor(aggregator, storageManager.MySQL, querySource, logger)
	stats := ingestor.Run(ctx)
	fmt.Printf("抓取完成: scraped=%d unique=%d created=%d updated=%d failed=%d\n",
		stats.Scraped, stats.Unique, stats.Created, stats.Updated, stats.Failed)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
