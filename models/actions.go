package models

import (
	"errors"
	"fmt"
	"strings"
)

// Action is the user intent that selects the prompt template
type Action string

const (
	ActionWebSearch       Action = "web_search"
	ActionImageGeneration Action = "image_generation"
	ActionVideoGeneration Action = "video_generation"
	ActionArtifacts       Action = "artifacts"
	ActionCreateImage     Action = "create_image"
	ActionCode            Action = "code"
	ActionPlan            Action = "plan"
	ActionNews            Action = "news"
	ActionMore            Action = "more"
	ActionVoice           Action = "voice"
	ActionHelp            Action = "help"
)

// ErrUnknownAction is returned by ParseAction for names outside the action set
var ErrUnknownAction = errors.New("unknown action")

// Actions lists every action in declaration order
var Actions = []Action{
	ActionWebSearch,
	ActionImageGeneration,
	ActionVideoGeneration,
	ActionArtifacts,
	ActionCreateImage,
	ActionCode,
	ActionPlan,
	ActionNews,
	ActionMore,
	ActionVoice,
	ActionHelp,
}

var actionLabels = map[Action]string{
	ActionWebSearch:       "Web Search",
	ActionImageGeneration: "Image Generation",
	ActionVideoGeneration: "Video Generation",
	ActionArtifacts:       "Artifacts",
	ActionCreateImage:     "Create image",
	ActionCode:            "Code",
	ActionPlan:            "Make a plan",
	ActionNews:            "💡 News",
	ActionMore:            "More",
	ActionVoice:           "Voice",
	ActionHelp:            "Help",
}

// ParseAction converts a wire name into an Action. The empty string maps to ActionMore.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionMore, nil
	}
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Label is the text shown on the action bar button
func (a Action) Label() string {
	return actionLabels[a]
}

// DisplayName is the badge shown above a message, e.g. "web search"
func (a Action) DisplayName() string {
	return strings.Replace(string(a), "_", " ", 1)
}

// DefaultPrompt is the text sent when the user triggers an action with an empty input
func (a Action) DefaultPrompt() string {
	return "Help me with " + a.DisplayName()
}

// DefaultText is the prompt used when the input box is empty. Attachments
// ask for an image analysis, otherwise the action's default prompt is used.
func DefaultText(a Action, files []File) string {
	if len(files) == 0 {
		return a.DefaultPrompt()
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return "Analyze this image: " + strings.Join(names, ", ")
}
