package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/db"
	gormlogger "gorm.io/gorm/logger"
)

// 测试数据生成器
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var author string
	flag.StringVar(&author, "author", "admin", "username that owns the seeded articles")
	flag.Parse()

	source := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		source = cfg.DatabaseDSN
	}
	if err := db.Init(cfg.DatabaseDriver, source, gormlogger.Warn); err != nil {
		fmt.Fprintf(os.Stderr, "数据库初始化失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("开始生成测试数据...")
	result, err := seed(db.DB, author, "admin123")
	if err != nil {
		fmt.Fprintf(os.Stderr, "生成测试数据失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("分类: %d, 文章: %d, 跳过: %d\n", result.categories, result.articles, result.skipped)
}
