// Package mcp exposes the storefront conversation as Model Context Protocol tools,
// so an agent can drive a user's session the same way a chat client would.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/storefront"
	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is what the MCP server needs from the storefront.
type Engine interface {
	HandleEvent(ctx context.Context, userID string, ev domain.Event) (domain.Reply, error)
	Session(ctx context.Context, userID string) (*domain.Session, error)
}

// EventArgs are the arguments of the handle_event tool.
type EventArgs struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Command string `json:"command,omitempty"`
	Token   string `json:"token,omitempty"`
	Text    string `json:"text,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// SessionArgs are the arguments of the get_session tool.
type SessionArgs struct {
	UserID string `json:"user_id"`
}

// EventResponse is the structured result of handle_event.
type EventResponse struct {
	Reply domain.Reply `json:"reply" jsonschema_description:"What the user should see"`
	State string       `json:"state" jsonschema_description:"Conversation state after the event"`
}

// SessionResponse is the structured result of get_session.
type SessionResponse struct {
	UserID string `json:"user_id"`
	State  string `json:"state" jsonschema_description:"Current conversation state, start when the user has none"`
}

// Server wraps the storefront Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("storefront-mcp", strings.TrimSpace(storefront.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	eventTool := mcp.NewTool("handle_event",
		mcp.WithDescription("Deliver one user interaction to the storefront bot and return its reply. "+
			"Use kind=command with command=start to begin, kind=callback with a button token to tap a button, "+
			"kind=text to type a message (e.g. an email when asked for one)."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation identity")),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("command", "callback", "text")),
		mcp.WithString("command", mcp.Description("Command name for kind=command: start or cancel")),
		mcp.WithString("token", mcp.Description("Button token for kind=callback")),
		mcp.WithString("text", mcp.Description("Message for kind=text")),
		mcp.WithString("event_id", mcp.Description("Optional delivery id; repeating it makes the call a no-op")),
		mcp.WithOutputSchema[EventResponse](),
	)
	s.mcpServer.AddTool(eventTool, mcp.NewStructuredToolHandler(s.handleEvent))

	sessionTool := mcp.NewTool("get_session",
		mcp.WithDescription("Return the conversation state of a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation identity")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(sessionTool, mcp.NewStructuredToolHandler(s.handleSession))
}

func (args EventArgs) event() (domain.Event, error) {
	var ev domain.Event
	switch domain.EventKind(args.Kind) {
	case domain.EventCommand:
		ev = domain.Command(strings.TrimSpace(args.Command))
	case domain.EventCallback:
		ev = domain.Callback(args.Token)
	case domain.EventText:
		clean, err := runner.SanitizeInput(args.Text)
		if err != nil {
			return ev, fmt.Errorf("input rejected: %w", err)
		}
		ev = domain.Text(clean)
	default:
		return ev, fmt.Errorf("unknown kind %q", args.Kind)
	}
	return ev.WithID(args.EventID), nil
}

func (s *Server) handleEvent(ctx context.Context, _ mcp.CallToolRequest, args EventArgs) (EventResponse, error) {
	ev, err := args.event()
	if err != nil {
		s.logger.Warn("MCP handle_event: rejected", "user_id", args.UserID, "err", err)
		return EventResponse{}, err
	}
	reply, err := s.engine.HandleEvent(ctx, args.UserID, ev)
	if err != nil {
		return EventResponse{}, fmt.Errorf("handle event: %w", err)
	}
	state, err := s.state(ctx, args.UserID)
	if err != nil {
		return EventResponse{}, err
	}
	return EventResponse{Reply: reply, State: state}, nil
}

func (s *Server) handleSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.UserID == "" {
		return SessionResponse{}, errors.New("user_id is required")
	}
	state, err := s.state(ctx, args.UserID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{UserID: args.UserID, State: state}, nil
}

func (s *Server) state(ctx context.Context, userID string) (string, error) {
	sess, err := s.engine.Session(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return string(domain.StateStart), nil
	case err != nil:
		return "", fmt.Errorf("load session: %w", err)
	}
	return string(sess.State), nil
}
