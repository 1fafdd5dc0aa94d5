//go:build !http

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
)

// main STDIO MCP服务器入口
// 文档问答和决策分析以MCP工具的形式暴露给编辑器/代理宿主
func main() {
	// MCP使用stdout通信，日志必须走stderr
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("启动 DocMind STDIO MCP 服务器...")

	deps, err := initializeServices()
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	defer deps.Close()

	serverOptions := []server.ServerOption{
		server.WithResourceCapabilities(true, true),
	}
	if deps.Config.Debug {
		serverOptions = append(serverOptions, server.WithLogging())
	}

	s := server.NewMCPServer(
		"docmind",
		"1.0.0",
		serverOptions...,
	)

	registerMCPTools(s, deps)

	log.Println("DocMind STDIO MCP 服务器已启动，等待连接...")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("MCP服务器启动失败: %v", err)
	}
}

// registerMCPTools 注册所有MCP工具
func registerMCPTools(s *server.MCPServer, deps *serviceDeps) {
	// 文档问答
	queryTool := mcp.NewTool("query_documents",
		mcp.WithDescription("基于已上传文档回答自然语言问题，返回带引用的结构化答案"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("用户的自然语言问题"),
		),
		mcp.WithString("userId",
			mcp.Description("租户标识，默认default"),
		),
	)
	s.AddTool(queryTool, queryDocumentsHandler(deps.RAGService))

	// 决策模式分析
	decisionTool := mcp.NewTool("decision_analysis",
		mcp.WithDescription("对文档执行固定模板的商业分析: summary, risk_analysis, revenue_analysis, clause_extraction"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("分析请求描述"),
		),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("分析模式: summary | risk_analysis | revenue_analysis | clause_extraction"),
		),
		mcp.WithString("userId",
			mcp.Description("租户标识，默认default"),
		),
	)
	s.AddTool(decisionTool, decisionAnalysisHandler(deps.DecisionService))

	// 文档入库
	uploadTool := mcp.NewTool("upload_document",
		mcp.WithDescription("上传纯文本文档并建立向量索引"),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("文档文件名"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("抽取后的文档纯文本"),
		),
		mcp.WithString("userId",
			mcp.Description("租户标识，默认default"),
		),
	)
	s.AddTool(uploadTool, uploadDocumentHandler(deps))
}

// stringArg 读取字符串参数
func stringArg(request mcp.CallToolRequest, key string) string {
	value, _ := request.Params.Arguments[key].(string)
	return value
}

// userIDArg 读取租户参数，缺省default
func userIDArg(request mcp.CallToolRequest) string {
	if userID := stringArg(request, "userId"); userID != "" {
		return userID
	}
	return "default"
}

// queryDocumentsHandler 处理文档问答工具调用
func queryDocumentsHandler(service *rag.Service) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := stringArg(request, "question")
		if question == "" {
			return mcp.NewToolResultText("错误: question必须是非空字符串"), nil
		}

		answer, err := service.ProcessQuery(ctx, question, userIDArg(request))
		if err != nil {
			errMsg := fmt.Sprintf("查询失败: %v", err)
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		jsonData, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("序列化答案失败: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// decisionAnalysisHandler 处理决策分析工具调用
func decisionAnalysisHandler(service *rag.DecisionService) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := stringArg(request, "query")
		mode := stringArg(request, "mode")
		if query == "" || mode == "" {
			return mcp.NewToolResultText("错误: query和mode必须是非空字符串"), nil
		}

		result, err := service.ProcessDecisionQuery(ctx, query, models.DecisionMode(mode), userIDArg(request))
		if err != nil {
			errMsg := fmt.Sprintf("决策分析失败: %v", err)
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("序列化结果失败: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// uploadDocumentHandler 处理文档入库工具调用
func uploadDocumentHandler(deps *serviceDeps) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := stringArg(request, "filename")
		text := stringArg(request, "text")
		if filename == "" || text == "" {
			return mcp.NewToolResultText("错误: filename和text必须是非空字符串"), nil
		}

		response, err := deps.IngestDocument(ctx, filename, text, userIDArg(request))
		if err != nil {
			errMsg := fmt.Sprintf("文档入库失败: %v", err)
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		jsonData, _ := json.MarshalIndent(response, "", "  ")
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
