package engine

import "github.com/dlsys-project/depengine/engine/emit"

func claimEvent(tag Tag, mode accessMode, readOnly bool) emit.Event {
	kind := "write"
	if readOnly {
		kind = "read"
	}
	return emit.Event{
		Tag:  tag.Name,
		Msg:  "resource_claimed",
		Mode: mode.String(),
		Meta: map[string]interface{}{"access": kind},
	}
}

func restoreEvent(tag Tag, mode accessMode) emit.Event {
	return emit.Event{
		Tag:  tag.Name,
		Msg:  "resource_restored",
		Mode: mode.String(),
	}
}

func errorEvent(err error) emit.Event {
	return emit.Event{
		Msg:  "instruction_error",
		Meta: map[string]interface{}{"error": err.Error()},
	}
}

func pushedEvent(touched []Tag) emit.Event {
	names := make([]string, len(touched))
	for i, t := range touched {
		names[i] = t.Name
	}
	return emit.Event{
		Msg:  "instruction_pushed",
		Meta: map[string]interface{}{"tags": names},
	}
}

func lifecycleEvent(msg string) emit.Event {
	return emit.Event{Msg: msg}
}
