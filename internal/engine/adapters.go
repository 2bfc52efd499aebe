package engine

import (
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/dialogue"
	"github.com/holdfast-mud/holdfast/internal/scheduler"
)

// talkerAdapter satisfies command.Talker over dialogue.Manager,
// converting its *dialogue.Node return shape into command.DialogueLine
// so the command package never has to import dialogue's node/tree
// types.
type talkerAdapter struct {
	dialogue *dialogue.Manager
}

func (a *talkerAdapter) StartDialogue(playerName, templateID string) (command.DialogueLine, error) {
	node, err := a.dialogue.Start(playerName, templateID)
	if err != nil {
		return command.DialogueLine{}, err
	}
	return a.render(templateID, node), nil
}

func (a *talkerAdapter) AdvanceDialogue(playerName string, choiceIndex int) (command.DialogueLine, error) {
	templateID, ok := a.dialogue.TemplateOf(playerName)
	if !ok {
		templateID = ""
	}
	node, err := a.dialogue.Advance(playerName, choiceIndex)
	if err != nil {
		return command.DialogueLine{}, err
	}
	return a.render(templateID, node), nil
}

func (a *talkerAdapter) render(templateID string, node *dialogue.Node) command.DialogueLine {
	choices := make([]string, len(node.Choices))
	for i, c := range node.Choices {
		choices[i] = c.Text
	}
	return command.DialogueLine{
		SpeakerName: a.dialogue.Speaker(templateID),
		Text:        node.Text,
		Choices:     choices,
		Ended:       node.Kind == dialogue.NodeEnd,
	}
}

// schedulerAdapter satisfies command.SchedulerControl over
// scheduler.Scheduler, converting scheduler.EventInfo into
// command.SchedulerEventInfo so command doesn't depend on scheduler.
type schedulerAdapter struct {
	sched *scheduler.Scheduler
}

func (a *schedulerAdapter) List() []command.SchedulerEventInfo {
	infos := a.sched.List()
	out := make([]command.SchedulerEventInfo, len(infos))
	for i, info := range infos {
		out[i] = convertEventInfo(info)
	}
	return out
}

func (a *schedulerAdapter) Info(name string) (command.SchedulerEventInfo, bool) {
	info, ok := a.sched.Info(name)
	if !ok {
		return command.SchedulerEventInfo{}, false
	}
	return convertEventInfo(info), true
}

func (a *schedulerAdapter) Enable(name string) bool  { return a.sched.Enable(name) }
func (a *schedulerAdapter) Disable(name string) bool { return a.sched.Disable(name) }

func convertEventInfo(info scheduler.EventInfo) command.SchedulerEventInfo {
	return command.SchedulerEventInfo{
		Name:       info.Name,
		Intervals:  info.Intervals,
		Enabled:    info.Enabled,
		RunCount:   info.RunCount,
		ErrorCount: info.ErrorCount,
		LastRun:    info.LastRun,
		LastError:  info.LastError,
	}
}
