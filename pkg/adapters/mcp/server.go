package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/session"
)

const graphURI = "fitcoach://graph"

// EventResult is the JSON payload of the questionnaire tools.
type EventResult struct {
	Outcome      domain.StepOutcome   `json:"outcome"`
	State        domain.State         `json:"state,omitempty"`
	Instructions []domain.Instruction `json:"instructions"`
}

// Server exposes the questionnaire and plan generation as MCP tools.
type Server struct {
	dispatcher *session.Dispatcher
	generator  *generation.Orchestrator
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(dispatcher *session.Dispatcher, generator *generation.Orchestrator, version string, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		generator:  generator,
		mcpServer:  server.NewMCPServer("fitcoach-mcp", version),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type subjectArgs struct {
	Subject string `mapstructure:"subject"`
}

type answerArgs struct {
	Subject string `mapstructure:"subject"`
	State   string `mapstructure:"state"`
	Value   string `mapstructure:"value"`
}

type generateArgs struct {
	Subject  string `mapstructure:"subject"`
	Artifact string `mapstructure:"artifact"`
}

func decodeArgs(request mcp.CallToolRequest, out any) error {
	if err := mapstructure.Decode(request.GetArguments(), out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	subject := mcp.WithString("subject", mcp.Required(), mcp.Description("Identifier of the person answering"))

	s.mcpServer.AddTool(mcp.NewTool("start",
		mcp.WithDescription("Start (or restart) the fitness questionnaire and return the first question."),
		subject,
	), s.handleStart)

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer the current question. Returns the next question or a validation error."),
		subject,
		mcp.WithString("value", mcp.Required(), mcp.Description("The answer")),
		mcp.WithString("state", mcp.Description("Step the answer is for (optional, defaults to the current step)")),
	), s.handleAnswer)

	s.mcpServer.AddTool(mcp.NewTool("cancel",
		mcp.WithDescription("Discard the questionnaire in progress."),
		subject,
	), s.handleCancel)

	s.mcpServer.AddTool(mcp.NewTool("generate",
		mcp.WithDescription("Generate a plan for a completed questionnaire."),
		subject,
		mcp.WithString("artifact", mcp.Required(), mcp.Description("Plan kind"),
			mcp.Enum(string(domain.ArtifactWorkoutPlan), string(domain.ArtifactMealPlan))),
	), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored answers and plans of a subject."),
		subject,
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the questionnaire definition for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.graph())
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args subjectArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, args.Subject, domain.Event{Kind: domain.EventStart})
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args answerArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, args.Subject, domain.Answer(domain.State(args.State), args.Value))
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args subjectArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, args.Subject, domain.Event{Kind: domain.EventCancel})
}

func (s *Server) dispatch(ctx context.Context, subject string, ev domain.Event) (*mcp.CallToolResult, error) {
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	out, err := s.dispatcher.Handle(ctx, subject, ev)
	if err != nil {
		s.logger.Warn("MCP event failed", "subject", subject, "kind", ev.Kind, "err", err)
	}
	res := EventResult{Outcome: out.Result, Instructions: out.Instructions}
	if out.Session != nil {
		res.State = out.Session.State
	}
	result, mErr := jsonResult(res)
	if mErr == nil && err != nil {
		result.IsError = true
	}
	return result, mErr
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.generator.Generate(ctx, args.Subject, domain.ArtifactKind(args.Artifact))
	var ge *domain.GenerationError
	if err != nil && !errors.As(err, &ge) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, mErr := jsonResult(report.Instruction())
	if mErr == nil && err != nil {
		result.IsError = true
	}
	return result, mErr
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args subjectArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.dispatcher.Session(ctx, args.Subject)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sess)
}

func (s *Server) graph() map[string]any {
	engine := s.dispatcher.Engine()
	steps := make([]domain.Instruction, 0)
	for _, st := range engine.Graph().States() {
		steps = append(steps, engine.Prompt(st))
	}
	return map[string]any{
		"initial": engine.Graph().Initial,
		"steps":   steps,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Questionnaire Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.graph())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
