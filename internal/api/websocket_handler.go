package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
)

// WebSocket升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleQueryStream WebSocket流式问答
// 客户端连接后发送一条QueryRequest，服务端按管线阶段推送StreamEvent，
// 最后一帧为done(携带完整答案)或error
func (h *Handler) HandleQueryStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("[流式查询] WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	var req models.QueryRequest
	if err := conn.ReadJSON(&req); err != nil || req.Question == "" {
		conn.WriteJSON(models.StreamEvent{Stage: "error", Message: "首条消息必须是包含question的查询请求"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	h.logger.Infof("[流式查询] 开始处理 user=%s", userID)

	progress := func(stage rag.ProgressStage, detail map[string]interface{}) {
		if err := conn.WriteJSON(models.StreamEvent{Stage: string(stage), Data: detail}); err != nil {
			h.logger.Warnf("[流式查询] 推送进度失败: %v", err)
		}
	}

	answer, err := h.ragService.ProcessQueryWithProgress(c.Request.Context(), req.Question, userID, progress)
	if err != nil {
		kind := ""
		var pe *models.PipelineError
		if errors.As(err, &pe) {
			kind = string(pe.Kind)
		}
		conn.WriteJSON(models.StreamEvent{Stage: "error", Message: err.Error(), Data: map[string]interface{}{"kind": kind}})
		return
	}

	conn.WriteJSON(models.StreamEvent{
		Stage: "done",
		Data: map[string]interface{}{
			"answer":   answer.Text,
			"sources":  answer.Sources,
			"metadata": answer.Metadata,
		},
	})
}
