package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ryanbastic/go-contentstore/internal/event"
	"github.com/ryanbastic/go-contentstore/internal/metrics"
)

// Notifier delivers content.saved notifications to subscribed plugins via
// JSON-RPC.
type Notifier struct {
	registry  *PluginRegistry
	rpcClient *RPCClient
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewNotifier(registry *PluginRegistry, rpcClient *RPCClient, logger *slog.Logger) *Notifier {
	return &Notifier{
		registry:  registry,
		rpcClient: rpcClient,
		logger:    logger,
	}
}

// Attach registers the notifier as an AfterSaveContent listener on bus.
func (n *Notifier) Attach(bus *event.Bus) event.Handle {
	return bus.AfterSaveContent.On(n.ContentSaved)
}

// ContentSaved fires a goroutine per plugin subscribed to the element's
// type. Errors are logged, not propagated: saves are never blocked by slow
// plugins.
func (n *Notifier) ContentSaved(ctx context.Context, ev *event.ElementContentEvent) {
	el := ev.Element
	if el == nil || el.Type == nil {
		return
	}
	plugins := n.registry.ForType(el.Type.Handle)
	if len(plugins) == 0 {
		return
	}

	params := ContentSavedParams{
		ElementID:   el.ID,
		SiteID:      el.SiteID,
		ContentID:   el.ContentID,
		ElementType: el.Type.Handle,
		Table:       ev.Coordinates.Table,
		Context:     ev.Coordinates.Context,
		Title:       el.Title,
		SavedAt:     time.Now().UTC(),
	}

	// The save's request context ends before delivery does.
	ctx = context.WithoutCancel(ctx)
	for _, p := range plugins {
		n.wg.Add(1)
		go func(endpoint, pluginName string) {
			defer n.wg.Done()
			resp, err := n.rpcClient.Call(ctx, endpoint, MethodContentSaved, params)
			if err == nil && resp.Error != nil {
				err = resp.Error
			}
			metrics.ObservePluginNotification(pluginName, err)
			if err != nil {
				n.logger.Error("plugin notification failed",
					"plugin", pluginName, "endpoint", endpoint, "element_id", params.ElementID, "error", err)
			}
		}(p.Endpoint, p.Name)
	}
}

// Wait blocks until all in-flight notifications have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
