package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qwen-chat/handlers"
	"qwen-chat/models"
	"qwen-chat/services"
	"qwen-chat/ui"
	"qwen-chat/workflows"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			r := newREPL(a.chat, a.qwen, cmd.InOrStdin(), cmd.OutOrStdout(), width)
			return r.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "render width in columns")
	return cmd
}

// pinger is the part of QwenService the status command needs
type pinger interface {
	Ping(ctx context.Context) error
}

type repl struct {
	chat     *workflows.Chat
	backend  pinger
	in       io.Reader
	out      io.Writer
	renderer *ui.Renderer
	copier   *ui.CopyTracker
	status   *ui.ConnectionStatus
	now      func() time.Time

	pending []models.File
}

func newREPL(chat *workflows.Chat, backend pinger, in io.Reader, out io.Writer, width int) *repl {
	return &repl{
		chat:     chat,
		backend:  backend,
		in:       in,
		out:      out,
		renderer: ui.NewRenderer(width),
		copier:   ui.NewCopyTracker(nil),
		status:   ui.NewConnectionStatus(),
		now:      time.Now,
	}
}

// Run reads lines until EOF or /quit
func (r *repl) Run(ctx context.Context) error {
	r.checkStatus(ctx)
	fmt.Fprintln(r.out, r.renderer.RenderActionBar())

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handle runs one input line and reports whether the session should end
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line, models.ActionMore)
		return false
	}

	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	switch name {
	case "quit", "exit":
		return true
	case "clear":
		r.chat.ClearChat()
		r.pending = nil
		fmt.Fprintln(r.out, "conversation cleared")
	case "copy":
		r.copyLast()
	case "attach":
		r.attach(strings.TrimSpace(rest))
	case "status":
		r.checkStatus(ctx)
	case "actions":
		fmt.Fprintln(r.out, r.renderer.RenderActionBar())
	default:
		action, err := models.ParseAction(name)
		if err != nil {
			fmt.Fprintln(r.out, r.renderer.RenderError(err.Error()))
			return false
		}
		r.send(ctx, rest, action)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string, action models.Action) {
	files := r.pending
	if text == "" {
		text = models.DefaultText(action, files)
	}

	before := len(r.chat.Messages())
	_, err := r.chat.SendMessage(ctx, text, action, files)
	if err == nil {
		r.pending = nil
	}

	msgs := r.chat.Messages()
	if before < len(msgs) {
		fmt.Fprintln(r.out, r.renderer.RenderMessages(msgs[before:]))
	}
	if err != nil {
		fmt.Fprintln(r.out, r.renderer.RenderError(r.chat.Error()))
	}
}

func (r *repl) attach(path string) {
	if path == "" {
		fmt.Fprintln(r.out, r.renderer.RenderError("usage: /attach <path>"))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(r.out, r.renderer.RenderError(err.Error()))
		return
	}
	f, err := handlers.NewImageFile(filepath.Base(path), data)
	if err != nil {
		fmt.Fprintln(r.out, r.renderer.RenderError(err.Error()))
		return
	}
	r.pending = append(r.pending, f)
	fmt.Fprintf(r.out, "attached %s (%d pending)\n", f.Name, len(r.pending))
}

func (r *repl) copyLast() {
	msgs := r.chat.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != models.RoleAssistant {
			continue
		}
		id := m.ID.String()
		if err := r.copier.Copy(id, m.Content); err != nil {
			fmt.Fprintln(r.out, r.renderer.RenderError("copy failed: "+err.Error()))
			return
		}
		if r.copier.IsCopied(id) {
			fmt.Fprintln(r.out, "copied")
		}
		return
	}
	fmt.Fprintln(r.out, r.renderer.RenderError("nothing to copy"))
}

func (r *repl) checkStatus(ctx context.Context) {
	err := r.backend.Ping(ctx)
	r.status.Set(err == nil, r.now())
	if r.status.Visible(r.now()) {
		fmt.Fprintln(r.out, r.status.Badge())
	}
}

var _ pinger = (*services.QwenService)(nil)
