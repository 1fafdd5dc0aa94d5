package models

// API请求/响应模型 ---------------------------------

// QueryRequest 文档问答请求
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   string `json:"userId,omitempty"`
}

// QueryResponse 文档问答响应
type QueryResponse struct {
	Answer   string                 `json:"answer"`
	Sources  []SourceCitation       `json:"sources"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DecisionRequest 决策模式分析请求
type DecisionRequest struct {
	Query  string       `json:"query" binding:"required"`
	Mode   DecisionMode `json:"mode" binding:"required"`
	UserID string       `json:"userId,omitempty"`
}

// UploadRequest 文档入库请求
// 文本抽取（PDF/DOCX解析）由上游完成，这里只接收抽取后的纯文本
type UploadRequest struct {
	Filename string `json:"filename" binding:"required"`
	Text     string `json:"text" binding:"required"`
	UserID   string `json:"userId,omitempty"`
}

// UploadResponse 文档入库响应
type UploadResponse struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunkCount"`
	Status     string `json:"status"`
}

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StreamEvent WebSocket推送的管线进度事件
type StreamEvent struct {
	Stage   string                 `json:"stage"` // analyzing, planning, retrieving, assembling, generating, done, error
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
