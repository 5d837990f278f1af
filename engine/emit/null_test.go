package emit

import (
	"context"
	"testing"
)

func TestNullEmitterDiscardsEverything(t *testing.T) {
	t.Parallel()

	e := NewNullEmitter()
	e.Emit(Event{Msg: "x"})
	if err := e.EmitBatch(context.Background(), []Event{{Msg: "x"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
