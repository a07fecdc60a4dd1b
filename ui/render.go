package ui

import (
	"fmt"
	"strings"

	"qwen-chat/models"

	"github.com/charmbracelet/lipgloss"
)

const timeFormat = "15:04:05"

// Styles used by the terminal renderer
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Badge     lipgloss.Style
	Code      lipgloss.Style
	Meta      lipgloss.Style
	Error     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#6C5CE7")).
			Padding(0, 1),
		Assistant: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#dddddd")).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().Faint(true),
		Code: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a6e22e")),
		Meta:  lipgloss.NewStyle().Faint(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
	}
}

// Renderer draws a conversation for a terminal of the given width
type Renderer struct {
	Width  int
	Styles Styles
}

func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{Width: width, Styles: DefaultStyles()}
}

// RenderMessages renders every message, user turns right aligned and
// assistant turns left aligned
func (r *Renderer) RenderMessages(messages []models.Message) string {
	blocks := make([]string, 0, len(messages))
	for _, m := range messages {
		blocks = append(blocks, r.RenderMessage(m))
	}
	return strings.Join(blocks, "\n")
}

func (r *Renderer) RenderMessage(m models.Message) string {
	var lines []string
	if m.Action != "" {
		lines = append(lines, r.Styles.Badge.Render(m.Action.DisplayName()))
	}
	lines = append(lines, r.wrap(m.Content))
	for _, img := range m.Images {
		lines = append(lines, "[image] "+img)
	}
	if m.Code != "" {
		lines = append(lines, r.Styles.Code.Render(m.Code))
	}
	for _, v := range m.Videos {
		lines = append(lines, "[video] "+v)
	}
	for _, a := range m.Artifacts {
		lines = append(lines, "[artifact] "+describeArtifact(a))
	}
	lines = append(lines, r.Styles.Meta.Render(m.Timestamp.Format(timeFormat)))

	body := strings.Join(lines, "\n")
	if m.Role == models.RoleUser {
		return lipgloss.PlaceHorizontal(r.Width, lipgloss.Right, r.Styles.User.Render(body))
	}
	return lipgloss.PlaceHorizontal(r.Width, lipgloss.Left, r.Styles.Assistant.Render(body))
}

// wrap limits content to 80% of the terminal width
func (r *Renderer) wrap(content string) string {
	limit := r.Width * 4 / 5
	if lipgloss.Width(content) <= limit {
		return content
	}
	return lipgloss.NewStyle().Width(limit).Render(content)
}

// RenderError renders the last error line, or nothing
func (r *Renderer) RenderError(msg string) string {
	if msg == "" {
		return ""
	}
	return r.Styles.Error.Render("error: " + msg)
}

// RenderActionBar renders the action bar as "name (Label)" pairs
func (r *Renderer) RenderActionBar() string {
	var parts []string
	for _, e := range ActionBar() {
		parts = append(parts, fmt.Sprintf("/%s (%s)", e.Action, e.Label))
	}
	return r.Styles.Meta.Width(r.Width).Render(strings.Join(parts, "  "))
}

func describeArtifact(a models.Artifact) string {
	t, _ := a["type"].(string)
	u, _ := a["url"].(string)
	switch {
	case t != "" && u != "":
		return t + " " + u
	case t != "":
		return t
	case u != "":
		return u
	default:
		return fmt.Sprint(map[string]any(a))
	}
}
