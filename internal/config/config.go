package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	// 服务配置
	ServiceName string
	Host        string
	Port        int
	Debug       bool
	GinMode     string // Gin运行模式

	// 向量存储配置
	VectorStoreType string // 向量存储类型: chroma, memory
	ChromaURL       string
	ChromaAPIKey    string
	Collection      string
	Dimension       int
	Metric          string

	// 嵌入服务配置
	EmbeddingAPIURL string
	EmbeddingAPIKey string
	EmbeddingModel  string

	// LLM配置
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModels   []string // 有序候选模型列表，失败时按序降级
	GeminiAPIKey string
	GeminiModel  string
	LLMRateLimit int // 每分钟请求数上限

	// 切片配置
	ChunkSize    int // 每个切片的字符数
	ChunkOverlap int // 相邻切片的重叠字符数

	// 检索配置
	TopKResults             int // 常规问题检索数量
	TopKComplex             int // 复杂/推理问题检索数量
	ComplexityWordThreshold int // 超过该词数视为复杂问题
	MaxExpandedTerms        int // 扩展词集合上限
	MaxSynonymsPerTerm      int // 每个关键词的同义词上限
	ContextCharBudget       int // 上下文字符预算
	PreviewLength           int // 引用预览截断长度

	// 超时配置
	SearchTimeout         time.Duration // 向量搜索超时
	GenerationTimeout     time.Duration // LLM生成超时
	RetrievalRetryBackoff time.Duration // 检索重试前的退避时间
}

// Load 从环境变量加载配置
func Load() *Config {
	// 尝试加载.env文件，优先config目录，然后兼容根目录
	envPaths := []string{
		"config/.env",
		".env",
	}

	loaded := false
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				log.Printf("成功加载.env文件: %s", path)
				loaded = true
				break
			}
		}
	}

	if !loaded {
		log.Printf("警告: 未找到.env文件，尝试使用系统环境变量")
	}

	config := &Config{
		// 服务配置默认值
		ServiceName: getEnv("SERVICE_NAME", "docmind"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnvAsInt("PORT", 8090),
		Debug:       getEnvAsBool("DEBUG", false),
		GinMode:     getEnv("GIN_MODE", "release"),

		// 向量存储配置
		VectorStoreType: getEnv("VECTOR_STORE_TYPE", "chroma"),
		ChromaURL:       getEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaAPIKey:    getEnv("CHROMA_API_KEY", ""),
		Collection:      getEnv("VECTOR_DB_COLLECTION", "documents"),
		Dimension:       getEnvAsInt("VECTOR_DB_DIMENSION", 384),
		Metric:          getEnv("VECTOR_DB_METRIC", "cosine"),

		// 嵌入服务配置
		EmbeddingAPIURL: getEnv("EMBEDDING_API_URL", "http://localhost:8080/v1/embeddings"),
		EmbeddingAPIKey: getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),

		// LLM配置
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModels:   getEnvAsSlice("GROQ_MODELS", []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant", "mixtral-8x7b-32768"}),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-pro"),
		LLMRateLimit: getEnvAsInt("LLM_RATE_LIMIT", 60),

		// 切片配置
		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),

		// 检索配置
		TopKResults:             getEnvAsInt("TOP_K_RESULTS", 8),
		TopKComplex:             getEnvAsInt("TOP_K_COMPLEX", 12),
		ComplexityWordThreshold: getEnvAsInt("COMPLEXITY_WORD_THRESHOLD", 12),
		MaxExpandedTerms:        getEnvAsInt("MAX_EXPANDED_TERMS", 12),
		MaxSynonymsPerTerm:      getEnvAsInt("MAX_SYNONYMS_PER_TERM", 2),
		ContextCharBudget:       getEnvAsInt("CONTEXT_CHAR_BUDGET", 12000),
		PreviewLength:           getEnvAsInt("PREVIEW_LENGTH", 200),

		// 超时配置
		SearchTimeout:         getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Second),
		GenerationTimeout:     getEnvAsDuration("GENERATION_TIMEOUT", 45*time.Second),
		RetrievalRetryBackoff: getEnvAsDuration("RETRIEVAL_RETRY_BACKOFF", 200*time.Millisecond),
	}

	return config
}

// String 返回配置的字符串表示
func (c *Config) String() string {
	return fmt.Sprintf(
		"服务名称: %s, 端口: %d, 调试模式: %v, 向量存储: %s, 嵌入API: %s, "+
			"切片大小: %d/%d, TopK: %d/%d, 上下文预算: %d字符, "+
			"候选模型: %v, 搜索超时: %v, 生成超时: %v",
		c.ServiceName, c.Port, c.Debug, c.VectorStoreType, maskString(c.EmbeddingAPIURL),
		c.ChunkSize, c.ChunkOverlap, c.TopKResults, c.TopKComplex, c.ContextCharBudget,
		c.GroqModels, c.SearchTimeout, c.GenerationTimeout,
	)
}

// 从环境变量获取字符串值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// 从环境变量获取整数值
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取布尔值
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取时间值
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取逗号分隔的字符串列表
func getEnvAsSlice(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	parts := strings.Split(strValue, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// 掩码字符串，用于日志输出安全
func maskString(input string) string {
	if len(input) <= 8 {
		return "***"
	}
	return input[:4] + "..." + input[len(input)-4:]
}
