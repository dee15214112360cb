// Package directory abstracts the label-addressable pod store that the
// pool coordinator runs against. The only write primitive is a
// conditional label patch keyed on the pod's resourceVersion, which is
// what turns a set of labeled pods into a compare-and-swap lease pool.
//
// Two implementations exist: KubeDirectory forwards to a Kubernetes
// API server, Fake reproduces the same semantics over an in-memory map
// for tests.
package directory

import (
	"context"

	corev1 "k8s.io/api/core/v1"
)

// Interface is the capability set the pool coordinator needs. Both
// implementations classify failures with the structured helpers in
// k8s.io/apimachinery/pkg/api/errors: a stale expectedVersion surfaces
// as IsConflict, a missing pod as IsNotFound.
type Interface interface {
	// List returns the pods in namespace whose labels satisfy selector.
	// Selector grammar: comma-separated key=value pairs, ANDed. An empty
	// selector matches everything; a pair without exactly one '=' is
	// skipped rather than rejected.
	List(ctx context.Context, namespace, selector string) ([]corev1.Pod, error)

	// Get fetches a single pod by name.
	Get(ctx context.Context, namespace, name string) (*corev1.Pod, error)

	// PatchLabels merges labels into the pod's label set and advances
	// its resourceVersion, but only if the stored version still equals
	// expectedVersion. On a version mismatch the pod is left untouched
	// and the error satisfies apierrors.IsConflict. Returns the updated
	// pod, whose resourceVersion is the caller's token for the next
	// conditional write.
	PatchLabels(ctx context.Context, namespace, name string, labels map[string]string, expectedVersion string) (*corev1.Pod, error)
}
