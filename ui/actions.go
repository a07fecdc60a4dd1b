package ui

import "qwen-chat/models"

const (
	GroupMain  = "main"
	GroupQuick = "quick"
	GroupOther = "other"
)

// ActionEntry is one button of the action bar
type ActionEntry struct {
	Action models.Action `json:"action"`
	Label  string        `json:"label"`
	Group  string        `json:"group"`
}

var actionGroups = []struct {
	group   string
	actions []models.Action
}{
	{GroupMain, []models.Action{
		models.ActionWebSearch,
		models.ActionImageGeneration,
		models.ActionVideoGeneration,
		models.ActionArtifacts,
	}},
	{GroupQuick, []models.Action{
		models.ActionCreateImage,
		models.ActionCode,
		models.ActionPlan,
		models.ActionNews,
		models.ActionMore,
	}},
	{GroupOther, []models.Action{
		models.ActionVoice,
		models.ActionHelp,
	}},
}

// ActionBar lists every action in display order, one entry per action
func ActionBar() []ActionEntry {
	var out []ActionEntry
	for _, g := range actionGroups {
		for _, a := range g.actions {
			out = append(out, ActionEntry{Action: a, Label: a.Label(), Group: g.group})
		}
	}
	return out
}
