package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TraceIDKey TraceID在上下文中的键名
const TraceIDKey = "traceId"

// goroutine本地的TraceID存储
var (
	traceIDMap   = make(map[uint64]string)
	traceIDMutex sync.RWMutex
)

// GenerateTraceID 生成新的TraceID
func GenerateTraceID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("%x", bytes)
}

// getGoroutineID 从栈信息解析当前goroutine ID
// 栈首行格式: "goroutine 123 [running]:"
func getGoroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]

	var gid uint64
	fmt.Sscanf(string(b), "goroutine %d ", &gid)
	return gid
}

// SetTraceID 设置当前goroutine的TraceID
func SetTraceID(traceID string) {
	gid := getGoroutineID()
	traceIDMutex.Lock()
	traceIDMap[gid] = traceID
	traceIDMutex.Unlock()
}

// GetTraceID 获取当前goroutine的TraceID
func GetTraceID() string {
	gid := getGoroutineID()
	traceIDMutex.RLock()
	defer traceIDMutex.RUnlock()
	return traceIDMap[gid]
}

// ClearTraceID 清理当前goroutine的TraceID
func ClearTraceID() {
	gid := getGoroutineID()
	traceIDMutex.Lock()
	delete(traceIDMap, gid)
	traceIDMutex.Unlock()
}

// TraceIDHook logrus钩子，把当前TraceID注入每条日志
type TraceIDHook struct{}

func (hook *TraceIDHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *TraceIDHook) Fire(entry *logrus.Entry) error {
	if traceID := GetTraceID(); traceID != "" {
		entry.Data[TraceIDKey] = traceID
	}
	return nil
}

// InitLogging 初始化日志系统：logrus格式 + TraceID钩子
func InitLogging(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
		DisableColors:   true,
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.AddHook(&TraceIDHook{})
}

// TraceIDMiddleware Gin中间件：透传或生成TraceID
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = GenerateTraceID()
		}

		SetTraceID(traceID)
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-ID", traceID)

		c.Next()

		ClearTraceID()
	}
}

// GetTraceIDFromContext 从标准context获取TraceID
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithTraceID 将TraceID写入标准context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}
