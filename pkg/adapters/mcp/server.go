package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/bake"
	"github.com/aretw0/bake/internal/dto"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TasksURI is the resource listing every registered task.
const TasksURI = "bake://tasks"

// Engine defines what the MCP server needs from a bake engine.
type Engine interface {
	Tasks() []*domain.Definition
	Resolve(name string) (*domain.Definition, error)
	Plan(reqs []domain.Request) ([]*domain.Instance, error)
	Run(ctx context.Context, reqs []domain.Request) (*domain.RunReport, error)
}

// TaskList is the structured result of list_tasks.
type TaskList struct {
	Tasks []dto.TaskInfo `json:"tasks" jsonschema_description:"Registered tasks in registration order"`
}

// PlanResult is the structured result of plan_tasks.
type PlanResult struct {
	Schedule []dto.ScheduleEntry `json:"schedule" jsonschema_description:"Tasks in execution order"`
}

// Server wraps a bake engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server for engine.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("bake-mcp", strings.TrimSpace(bake.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout. Task output must not be
// written to Stdout while it runs.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List every registered task with its parameters."),
		mcp.WithOutputSchema[TaskList](),
	), mcp.NewStructuredToolHandler(s.handleListTasks))

	s.mcpServer.AddTool(mcp.NewTool("describe_task",
		mcp.WithDescription("Describe one task by short name, prefixed name or fullname."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
		mcp.WithOutputSchema[dto.TaskInfo](),
	), mcp.NewStructuredToolHandler(s.handleDescribeTask))

	requests := mcp.WithString("requests", mcp.Required(),
		mcp.Description(`JSON array of requests, e.g. [{"task":"deploy","params":{"target":"prod"}}]`))

	s.mcpServer.AddTool(mcp.NewTool("plan_tasks",
		mcp.WithDescription("Compute the execution order for the requested tasks without running them."),
		requests,
		mcp.WithOutputSchema[PlanResult](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("run_tasks",
		mcp.WithDescription("Run the requested tasks and their requirements, one at a time."),
		requests,
		mcp.WithOutputSchema[domain.RunReport](),
	), mcp.NewStructuredToolHandler(s.handleRun))
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TaskList, error) {
	return TaskList{Tasks: dto.TaskInfos(s.engine.Tasks())}, nil
}

func (s *Server) handleDescribeTask(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (dto.TaskInfo, error) {
	name, _ := args["name"].(string)
	def, err := s.engine.Resolve(name)
	if err != nil {
		return dto.TaskInfo{}, err
	}
	return dto.NewTaskInfo(def), nil
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (PlanResult, error) {
	reqs, err := parseRequests(args)
	if err != nil {
		return PlanResult{}, err
	}
	seq, err := s.engine.Plan(reqs)
	if err != nil {
		return PlanResult{}, fmt.Errorf("plan failed: %w", err)
	}
	return PlanResult{Schedule: dto.NewSchedule(seq)}, nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.RunReport, error) {
	reqs, err := parseRequests(args)
	if err != nil {
		return domain.RunReport{}, err
	}
	report, err := s.engine.Run(ctx, reqs)
	if report == nil {
		return domain.RunReport{}, fmt.Errorf("run failed: %w", err)
	}
	if err != nil {
		slog.Warn("MCP run finished with error", "run_id", report.ID, "error", err)
	}
	return *report, nil
}

// parseRequests decodes the "requests" argument. Text parameter values are
// sanitized like any other user input.
func parseRequests(args map[string]any) ([]domain.Request, error) {
	raw, _ := args["requests"].(string)
	var reqs []domain.Request
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, fmt.Errorf("invalid requests: %w", err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no task requested")
	}
	for _, req := range reqs {
		for key, value := range req.Params {
			text, ok := value.(string)
			if !ok {
				continue
			}
			clean, err := runner.SanitizeValue(text)
			if err != nil {
				slog.Warn("MCP: input rejected", "param", key, "error", err, "size", len(text))
				return nil, fmt.Errorf("parameter %s rejected: %w", key, err)
			}
			req.Params[key] = clean
		}
	}
	return reqs, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TasksURI, "Registered Tasks",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(dto.TaskInfos(s.engine.Tasks()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode tasks: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TasksURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
