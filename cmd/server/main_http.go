//go:build http

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docmind/service/internal/api"
)

// main HTTP服务器入口 (构建标签: http)
// 提供REST问答/决策/文档管理接口和WebSocket流式查询
func main() {
	log.Println("启动 DocMind HTTP 服务器...")

	deps, err := initializeServices()
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer deps.Close()

	handler := api.NewHandler(deps.RAGService, deps.DecisionService, deps.Store, deps.Chunker, deps.Logger)
	router := handler.SetupRouter(deps.Config.GinMode)

	addr := fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		deps.Logger.Infof("[启动] HTTP服务监听 %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP服务启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	deps.Logger.Infof("[关闭] 收到退出信号，开始优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}
	deps.Logger.Infof("[关闭] 服务已退出")
}
