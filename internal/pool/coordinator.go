// Package pool implements the lease protocol that turns labeled worker
// pods into a pool of exclusively-held capacity. Pool state lives
// entirely in the pods' labels: status=ready means available,
// status=busy means held. Acquisition is a compare-and-swap label patch
// keyed on the pod's resourceVersion, so any number of uncoordinated
// gateway instances can race safely: the directory's CAS is the only
// serialization point, per pod.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/facegate/facegate/internal/directory"
	"github.com/facegate/facegate/internal/metrics"
)

// Label values tracking a pod's pool state.
const (
	StatusLabel = "status"
	StatusReady = "ready"
	StatusBusy  = "busy"
)

const defaultMaxAttempts = 5

// ErrNoneAvailable reports that no ready pod could be acquired. It is
// an expected outcome of a momentarily empty or fully contended pool,
// not a backend failure; the HTTP boundary maps it to 503.
var ErrNoneAvailable = errors.New("no worker pods available")

// Coordinator acquires and releases worker pods. It keeps no local
// copy of pool state: every Acquire re-lists from the directory, and
// correctness under concurrent callers comes entirely from the
// directory's conditional patch. Safe for concurrent use.
type Coordinator struct {
	Directory directory.Interface
	Namespace string

	// ReadySelector describes the available pods, e.g.
	// "app=facegate-worker,status=ready".
	ReadySelector string

	// MaxAttempts bounds the list-and-race rounds before giving up.
	// Zero means the default of 5.
	MaxAttempts int

	// Metrics is optional.
	Metrics *metrics.Pool
}

// Acquire leases one ready pod, marking it busy. It lists the ready
// pods, walks them in uniformly random order to spread concurrent
// callers across candidates, and attempts the busy patch with each
// candidate's observed resourceVersion. A conflict means another
// instance won that pod; the next candidate is tried without
// re-listing. Only when a whole batch is lost does it list again, up
// to MaxAttempts rounds.
//
// Returns ErrNoneAvailable when the pool is empty or fully contended.
// Any other error is a directory failure and aborts the call.
func (c *Coordinator) Acquire(ctx context.Context) (*corev1.Pod, error) {
	logger := log.FromContext(ctx).WithName("pool")
	start := time.Now()
	defer func() {
		if c.Metrics != nil {
			c.Metrics.AcquireDuration.Observe(time.Since(start).Seconds())
		}
	}()

	for attempt := 1; attempt <= c.attempts(); attempt++ {
		candidates, err := c.Directory.List(ctx, c.Namespace, c.ReadySelector)
		if err != nil {
			return nil, fmt.Errorf("failed to list worker pods: %w", err)
		}

		if len(candidates) == 0 {
			// An empty snapshot is not contention; retrying the same
			// list immediately would see the same emptiness.
			logger.Info("no worker pods match selector", "selector", c.ReadySelector)
			c.count(func(m *metrics.Pool) { m.AcquireEmpty.Inc() })
			return nil, ErrNoneAvailable
		}

		// The shuffle is pure in-memory computation between directory
		// calls; no RNG state crosses a blocking operation.
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		for i := range candidates {
			pod := &candidates[i]
			if pod.Name == "" || pod.ResourceVersion == "" {
				return nil, fmt.Errorf("pod %q missing name or resourceVersion", pod.Name)
			}

			updated, err := c.Directory.PatchLabels(ctx, c.Namespace, pod.Name,
				map[string]string{StatusLabel: StatusBusy}, pod.ResourceVersion)
			switch {
			case err == nil:
				logger.Info("acquired worker pod", "pod", pod.Name, "attempt", attempt)
				c.count(func(m *metrics.Pool) { m.AcquireTotal.Inc() })
				return updated, nil
			case apierrors.IsConflict(err):
				// Another instance won this pod; move on within the
				// same batch.
				logger.V(1).Info("lost acquire race", "pod", pod.Name)
				c.count(func(m *metrics.Pool) { m.AcquireConflicts.Inc() })
				continue
			default:
				return nil, fmt.Errorf("failed to mark pod %s busy: %w", pod.Name, err)
			}
		}

		logger.V(1).Info("all candidates taken, relisting", "attempt", attempt)
	}

	c.count(func(m *metrics.Pool) { m.AcquireExhausted.Inc() })
	return nil, ErrNoneAvailable
}

// Release returns an acquired pod to the pool by patching its status
// back to ready with the resourceVersion captured at acquire time.
//
// Callers treat a failed release as a logged warning, never as a
// failure of their own request. The cost is a known gap: a pod whose
// release fails, or whose holder crashes, stays busy until an external
// process relabels it. ReleaseFailures counts these.
func (c *Coordinator) Release(ctx context.Context, pod *corev1.Pod) error {
	if pod.Name == "" || pod.ResourceVersion == "" {
		c.count(func(m *metrics.Pool) { m.ReleaseFailures.Inc() })
		return fmt.Errorf("pod %q missing name or resourceVersion", pod.Name)
	}

	if _, err := c.Directory.PatchLabels(ctx, c.Namespace, pod.Name,
		map[string]string{StatusLabel: StatusReady}, pod.ResourceVersion); err != nil {
		c.count(func(m *metrics.Pool) { m.ReleaseFailures.Inc() })
		return fmt.Errorf("failed to mark pod %s ready: %w", pod.Name, err)
	}

	log.FromContext(ctx).WithName("pool").Info("released worker pod", "pod", pod.Name)
	return nil
}

// PodEndpoint projects the network address of an acquired pod. A pod
// without an IP cannot serve requests regardless of its label state,
// so absence is an internal consistency error.
func PodEndpoint(pod *corev1.Pod) (string, error) {
	if pod.Status.PodIP == "" {
		return "", fmt.Errorf("pod %s has no IP address", pod.Name)
	}
	return pod.Status.PodIP, nil
}

func (c *Coordinator) attempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return defaultMaxAttempts
}

func (c *Coordinator) count(fn func(*metrics.Pool)) {
	if c.Metrics != nil {
		fn(c.Metrics)
	}
}
