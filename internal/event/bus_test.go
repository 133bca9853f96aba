package event

import (
	"testing"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe("package.stage", func(e Event) {
		received = append(received, e)
	})

	bus.Publish(NewPackageStageEvent("core", scheduler.StageRunning))
	bus.Publish(NewSchedulerStateEvent(scheduler.StatePaused))

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	ev, ok := received[0].(PackageStageEvent)
	if !ok {
		t.Fatalf("expected PackageStageEvent, got %T", received[0])
	}
	if ev.Package != "core" || ev.Stage != scheduler.StageRunning {
		t.Errorf("unexpected event payload: %+v", ev)
	}
	if ev.Timestamp().IsZero() {
		t.Error("expected a non-zero timestamp")
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	var types []string
	bus.SubscribeAll(func(e Event) {
		types = append(types, e.EventType())
	})

	bus.Publish(NewRunStartedEvent("/ws", 3))
	bus.Publish(NewPackageStageEvent("core", scheduler.StageDone))
	bus.Publish(NewRunFinishedEvent(&scheduler.Result{}))

	want := []string{"run.started", "package.stage", "run.finished"}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("event[%d]: expected %s, got %s", i, typ, types[i])
		}
	}
}

func TestSpecificHandlersRunBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "wildcard") })
	bus.Subscribe("package.stage", func(Event) { order = append(order, "specific") })

	bus.Publish(NewPackageStageEvent("core", scheduler.StageReady))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("expected [specific wildcard], got %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	id := bus.Subscribe("package.stage", func(Event) { calls++ })

	if !bus.Unsubscribe(id) {
		t.Fatal("expected Unsubscribe to find the subscription")
	}
	if bus.Unsubscribe(id) {
		t.Error("expected repeat Unsubscribe to return false")
	}

	bus.Publish(NewPackageStageEvent("core", scheduler.StageReady))
	if calls != 0 {
		t.Errorf("unsubscribed handler was called %d times", calls)
	}
}

func TestPanickingHandlerDoesNotBlockDelivery(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe("package.stage", func(Event) { panic("handler bug") })
	bus.Subscribe("package.stage", func(Event) { called = true })

	bus.Publish(NewPackageStageEvent("core", scheduler.StageReady))

	if !called {
		t.Error("expected the second handler to run despite the panic")
	}
}

func TestClearAndSubscriptionCount(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("package.stage", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	if got := bus.SubscriptionCount(); got != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", got)
	}
	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("expected 0 subscriptions after Clear, got %d", got)
	}
}

func TestObserverPublishesSchedulerCallbacks(t *testing.T) {
	bus := NewBus()
	obs := NewObserver(bus)

	var events []Event
	bus.SubscribeAll(func(e Event) { events = append(events, e) })

	obs.OnStage("core", scheduler.StageFailed)
	obs.OnSchedulerState(scheduler.StateRunning)
	obs.OnViewMode(scheduler.ViewAll, scheduler.FilterActive)

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if _, ok := events[0].(PackageStageEvent); !ok {
		t.Errorf("expected PackageStageEvent, got %T", events[0])
	}
	if _, ok := events[1].(SchedulerStateEvent); !ok {
		t.Errorf("expected SchedulerStateEvent, got %T", events[1])
	}
	vm, ok := events[2].(ViewModeEvent)
	if !ok {
		t.Fatalf("expected ViewModeEvent, got %T", events[2])
	}
	if vm.Mode != scheduler.ViewAll || vm.Filter != scheduler.FilterActive {
		t.Errorf("unexpected view mode payload: %+v", vm)
	}
}
