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

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var username, password string
	flag.StringVar(&username, "username", cfg.SuperRootUserName, "staff username")
	flag.StringVar(&password, "password", cfg.SuperRootPassword, "staff password")
	flag.Parse()

	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required (flags or SUPER_ROOT_USER_NAME / SUPER_ROOT_PASSWORD)")
		os.Exit(2)
	}

	// 初始化数据库
	source := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		source = cfg.DatabaseDSN
	}
	if err := db.Init(cfg.DatabaseDriver, source, gormlogger.Warn); err != nil {
		fmt.Fprintf(os.Stderr, "数据库初始化失败: %v\n", err)
		os.Exit(1)
	}

	var count int64
	if err := db.DB.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "查询用户失败: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	if err := db.EnsureUser(db.DB, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "创建用户失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("管理员用户创建成功")
	fmt.Println("用户名:", username)
}
