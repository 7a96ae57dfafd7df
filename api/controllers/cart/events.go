package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/angelmondragon/rocketcart/api/responses"
	cartsvc "github.com/angelmondragon/rocketcart/internal/cart"
	pkgerrors "github.com/angelmondragon/rocketcart/pkg/errors"
	"github.com/angelmondragon/rocketcart/pkg/logger"
)

const (
	eventName        = "cart"
	eventBufferSize  = 16
	defaultHeartbeat = 15 * time.Second
)

// CartEvents streams the committed cart as Server-Sent Events: the current cart on connect, then one
// event per commit. Clients that fall behind by more than the buffer are disconnected.
func CartEvents(svc Service, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable())
			return
		}

		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "event stream unavailable"))
			return
		}

		updates := make(chan cartsvc.Cart, eventBufferSize)
		overflow := make(chan struct{})
		var overflowOnce sync.Once
		unsubscribe := svc.Subscribe(func(c cartsvc.Cart) {
			select {
			case updates <- c:
			default:
				overflowOnce.Do(func() { close(overflow) })
			}
		})
		defer unsubscribe()

		header := w.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		var seq uint64
		send := func(c cartsvc.Cart) error {
			payload, err := json.Marshal(newCart(c))
			if err != nil {
				return err
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, eventName, payload); err != nil {
				return err
			}
			return rc.Flush()
		}

		if err := send(svc.Cart()); err != nil {
			return
		}

		if logg != nil {
			logg.Debug(ctx, "cart.events_connected")
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-overflow:
				if logg != nil {
					logg.Warn(ctx, "cart.events_slow_client")
				}
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			case c := <-updates:
				if err := send(c); err != nil {
					return
				}
			}
		}
	}
}
