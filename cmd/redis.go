package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"trackdesk/cache"
	"trackdesk/config"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并列出已保存的草稿键。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer func() {
			if err := cache.CloseRedis(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.CheckRedis(ctx); err != nil {
			log.Fatalf("Redis读写测试失败: %v", err)
		}
		fmt.Println("Redis连接成功！")

		keys, err := cache.NewRedisKV(cache.RedisClient, 0).Keys()
		if err != nil {
			log.Fatalf("读取草稿键失败: %v", err)
		}
		fmt.Printf("\n%s 下共有 %d 个草稿:\n", cache.DraftNamespace, len(keys))
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
