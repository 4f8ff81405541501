package event

import "github.com/ryanbastic/go-contentstore/internal/element"

// ElementContentEvent is dispatched around content saves. Coordinates are the
// ones the save uses, resolved from the element.
type ElementContentEvent struct {
	Element     *element.Element
	Coordinates element.Coordinates
}

// RegisterCpAlertsEvent collects control panel alerts from listeners.
type RegisterCpAlertsEvent struct {
	Alerts []string
}

// Element source contexts.
const (
	SourceContextIndex = "index"
	SourceContextModal = "modal"
)

// ElementSource is one entry in an element index or selection modal sidebar.
type ElementSource struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Criteria map[string]any `json:"criteria,omitempty"`
}

// RegisterElementSourcesEvent collects the sources available for an element type.
type RegisterElementSourcesEvent struct {
	ElementType string
	Context     string
	Sources     []ElementSource
}

// ResolveResourcePathEvent asks listeners to map a resource URI to a file path.
type ResolveResourcePathEvent struct {
	URI  string
	Path string
}

// Bus groups the dispatchers for every event the content store emits.
type Bus struct {
	BeforeSaveContent      Dispatcher[ElementContentEvent]
	AfterSaveContent       Dispatcher[ElementContentEvent]
	RegisterCpAlerts       Dispatcher[RegisterCpAlertsEvent]
	RegisterElementSources Dispatcher[RegisterElementSourcesEvent]
	ResolveResourcePath    Dispatcher[ResolveResourcePathEvent]
}

func NewBus() *Bus {
	return &Bus{}
}
