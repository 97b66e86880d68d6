package capture

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
)

const (
	maxResolveAttempts = 2
	resolveTimeout     = 4 * time.Second
	resolvePause       = 3 * time.Second
)

// NameResolver chases names for prefix-matched devices that advertise
// without one, using hcitool name requests in the background. A resolved
// name is re-injected as a name-match event so the processor can upgrade
// the device's confidence classification.
type NameResolver struct {
	queue *detect.Queue
	mu    sync.Mutex
	tried map[detect.MAC]int
	stop  chan struct{}
}

// NewNameResolver creates a resolver feeding the given queue.
func NewNameResolver(queue *detect.Queue) *NameResolver {
	return &NameResolver{
		queue: queue,
		tried: make(map[detect.MAC]int),
		stop:  make(chan struct{}),
	}
}

// Available reports whether hcitool exists on this host.
func (r *NameResolver) Available() bool {
	_, err := exec.LookPath("hcitool")
	return err == nil
}

// RequestResolve queues a MAC for background name resolution. Safe to
// call from any goroutine; duplicate and exhausted requests are ignored.
func (r *NameResolver) RequestResolve(mac detect.MAC) {
	r.mu.Lock()
	if r.tried[mac] >= maxResolveAttempts {
		r.mu.Unlock()
		return
	}
	r.tried[mac]++
	r.mu.Unlock()

	go r.resolve(mac)
}

func (r *NameResolver) resolve(mac detect.MAC) {
	// Rate limit - don't spam name requests
	select {
	case <-r.stop:
		return
	case <-time.After(resolvePause):
	}

	name := tryHcitool(mac.String())
	if name == "" {
		return
	}
	if len(name) > maxSSIDLen {
		name = name[:maxSSIDLen]
	}

	r.queue.Push(detect.Event{
		MAC:      mac,
		Name:     name,
		Type:     detect.EventBLENameMatch,
		At:       time.Now(),
		NoSignal: true, // name request carries no signal reading
	})
}

func tryHcitool(mac string) string {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "hcitool", "name", mac).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Stop terminates pending resolutions.
func (r *NameResolver) Stop() {
	close(r.stop)
}
