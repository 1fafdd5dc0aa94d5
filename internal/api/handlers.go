package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/chunker"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
	"github.com/docmind/service/internal/utils"
)

var startTime = time.Now()

// defaultUserID 未提供userId时的默认租户
const defaultUserID = "default"

// Handler HTTP API处理器
type Handler struct {
	ragService      *rag.Service
	decisionService *rag.DecisionService
	store           models.VectorStore
	chunker         *chunker.Chunker
	logger          *logrus.Logger
}

// NewHandler 创建API处理器
func NewHandler(ragService *rag.Service, decisionService *rag.DecisionService, store models.VectorStore, docChunker *chunker.Chunker, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		ragService:      ragService,
		decisionService: decisionService,
		store:           store,
		chunker:         docChunker,
		logger:          logger,
	}
}

// SetupRouter 配置Gin路由
func (h *Handler) SetupRouter(ginMode string) *gin.Engine {
	gin.SetMode(ginMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.TraceIDMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Trace-ID", "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", h.HandleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/query", h.HandleQuery)
		v1.GET("/query/stream", h.HandleQueryStream)
		v1.POST("/decision", h.HandleDecision)
		v1.POST("/documents", h.HandleUpload)
		v1.GET("/documents", h.HandleListDocuments)
		v1.DELETE("/documents/:id", h.HandleDeleteDocument)
	}

	return router
}

// HandleHealth 健康检查
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       time.Since(startTime).String(),
		"vector_store": string(h.store.GetProvider()),
	})
}

// HandleQuery 文档问答
func (h *Handler) HandleQuery(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "question字段必填"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	answer, err := h.ragService.ProcessQuery(c.Request.Context(), req.Question, userID)
	if err != nil {
		h.writePipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.QueryResponse{
		Answer:   answer.Text,
		Sources:  answer.Sources,
		Metadata: answer.Metadata,
	})
}

// HandleDecision 决策模式分析
func (h *Handler) HandleDecision(c *gin.Context) {
	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "query和mode字段必填"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	result, err := h.decisionService.ProcessDecisionQuery(c.Request.Context(), req.Query, req.Mode, userID)
	if err != nil {
		h.writePipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleUpload 文档入库：切片并写入向量存储
func (h *Handler) HandleUpload(c *gin.Context) {
	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "filename和text字段必填"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	documentID := uuid.New().String()
	chunks := h.chunker.Split(documentID, req.Filename, req.Text)
	if len(chunks) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "文档内容为空"})
		return
	}

	if err := h.store.StoreChunks(c.Request.Context(), chunks, userID); err != nil {
		h.logger.Errorf("[上传] 存储切片失败: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "文档入库失败"})
		return
	}

	h.logger.Infof("[上传] 文档入库完成 file=%s chunks=%d user=%s", req.Filename, len(chunks), userID)
	c.JSON(http.StatusOK, models.UploadResponse{
		DocumentID: documentID,
		Filename:   req.Filename,
		ChunkCount: len(chunks),
		Status:     "indexed",
	})
}

// HandleListDocuments 列出用户文档
func (h *Handler) HandleListDocuments(c *gin.Context) {
	userID := c.DefaultQuery("userId", defaultUserID)

	docs, err := h.store.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("[文档] 列表查询失败: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "文档列表查询失败"})
		return
	}
	if docs == nil {
		docs = []models.DocumentInfo{}
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// HandleDeleteDocument 删除文档及其全部切片
func (h *Handler) HandleDeleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	userID := c.DefaultQuery("userId", defaultUserID)

	if err := h.store.DeleteDocument(c.Request.Context(), documentID, userID); err != nil {
		h.logger.Errorf("[文档] 删除失败 doc=%s: %v", documentID, err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "文档删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documentId": documentID, "status": "deleted"})
}

// writePipelineError 将管线失败类型映射为HTTP状态码
// retrieval/generation不可用 -> 503；非法模式 -> 400
func (h *Handler) writePipelineError(c *gin.Context, err error) {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		status := http.StatusServiceUnavailable
		if pe.Kind == models.FailureInvalidMode {
			status = http.StatusBadRequest
		}
		c.JSON(status, models.ErrorResponse{Error: pe.Message, Kind: string(pe.Kind)})
		return
	}

	h.logger.Errorf("[API] 未分类错误: %v", err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "内部错误"})
}
