package event

import (
	"context"
	"reflect"
	"testing"

	"github.com/ryanbastic/go-contentstore/internal/element"
)

func TestDispatcher_RegistrationOrder(t *testing.T) {
	var d Dispatcher[RegisterCpAlertsEvent]
	var order []string

	d.On(func(ctx context.Context, ev *RegisterCpAlertsEvent) {
		order = append(order, "first")
		ev.Alerts = append(ev.Alerts, "license expired")
	})
	d.On(func(ctx context.Context, ev *RegisterCpAlertsEvent) {
		order = append(order, "second")
		ev.Alerts = append(ev.Alerts, "search index degraded")
	})

	ev := &RegisterCpAlertsEvent{}
	d.Dispatch(context.Background(), ev)

	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Errorf("order: got %v", order)
	}
	if !reflect.DeepEqual(ev.Alerts, []string{"license expired", "search index degraded"}) {
		t.Errorf("alerts: got %v", ev.Alerts)
	}
}

func TestDispatcher_NoHandlers(t *testing.T) {
	var d Dispatcher[ResolveResourcePathEvent]
	ev := &ResolveResourcePathEvent{URI: "css/app.css"}

	d.Dispatch(context.Background(), ev)

	if ev.Path != "" {
		t.Errorf("Path: got %q, want empty", ev.Path)
	}
}

func TestDispatcher_Off(t *testing.T) {
	var d Dispatcher[ElementContentEvent]
	calls := 0
	h := d.On(func(ctx context.Context, ev *ElementContentEvent) { calls++ })

	if d.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", d.Len())
	}
	if !d.Off(h) {
		t.Fatal("Off returned false for a registered handle")
	}
	if d.Off(h) {
		t.Error("Off returned true for an already removed handle")
	}

	d.Dispatch(context.Background(), &ElementContentEvent{Element: element.New(nil, 1, 1)})
	if calls != 0 {
		t.Errorf("calls after Off: got %d", calls)
	}
}

func TestDispatcher_RegisterDuringDispatch(t *testing.T) {
	var d Dispatcher[RegisterElementSourcesEvent]
	late := 0
	d.On(func(ctx context.Context, ev *RegisterElementSourcesEvent) {
		d.On(func(ctx context.Context, ev *RegisterElementSourcesEvent) { late++ })
	})

	d.Dispatch(context.Background(), &RegisterElementSourcesEvent{})
	if late != 0 {
		t.Errorf("handler added during dispatch ran in the same dispatch")
	}

	d.Dispatch(context.Background(), &RegisterElementSourcesEvent{})
	if late != 1 {
		t.Errorf("late handler calls: got %d, want 1", late)
	}
}

func TestBus_ElementContentPayload(t *testing.T) {
	bus := NewBus()
	el := element.New(nil, 7, 1)

	var got *ElementContentEvent
	bus.BeforeSaveContent.On(func(ctx context.Context, ev *ElementContentEvent) { got = ev })

	bus.BeforeSaveContent.Dispatch(context.Background(), &ElementContentEvent{Element: el, Coordinates: el.Coordinates()})

	if got == nil || got.Element != el {
		t.Fatal("handler did not receive the element")
	}
	if got.Coordinates != element.DefaultCoordinates() {
		t.Errorf("Coordinates: got %+v", got.Coordinates)
	}
	if bus.AfterSaveContent.Len() != 0 {
		t.Error("after-save dispatcher should be independent")
	}
}
