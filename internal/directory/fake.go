package directory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Fake is an in-memory Interface implementation that reproduces the
// API server's compare-and-swap semantics: every successful PatchLabels
// bumps an incrementing numeric resourceVersion, and a patch carrying a
// stale version fails with a structured Conflict and no mutation.
//
// The mutex guards each individual operation only; it is never held
// across calls, since the fake stands in for the directory itself
// rather than for a client of it. Safe for concurrent use.
type Fake struct {
	mu   sync.Mutex
	pods map[string]*corev1.Pod
}

// NewFake returns an empty fake directory.
func NewFake() *Fake {
	return &Fake{pods: make(map[string]*corev1.Pod)}
}

// NewPod builds a pod suitable for seeding the fake, with
// resourceVersion "1".
func NewPod(namespace, name string, labels map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			Namespace:       namespace,
			Labels:          labels,
			ResourceVersion: "1",
		},
	}
}

// Add stores a pod. Existing entries with the same namespace/name are
// replaced.
func (f *Fake) Add(pod *corev1.Pod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods[podKey(pod.Namespace, pod.Name)] = pod.DeepCopy()
}

func (f *Fake) List(ctx context.Context, namespace, selector string) ([]corev1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matching []corev1.Pod
	prefix := namespace + "/"
	for key, pod := range f.pods {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if matchesSelector(pod.Labels, selector) {
			matching = append(matching, *pod.DeepCopy())
		}
	}
	return matching, nil
}

func (f *Fake) Get(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pod, ok := f.pods[podKey(namespace, name)]
	if !ok {
		return nil, apierrors.NewNotFound(corev1.Resource("pods"), name)
	}
	return pod.DeepCopy(), nil
}

func (f *Fake) PatchLabels(ctx context.Context, namespace, name string, labels map[string]string, expectedVersion string) (*corev1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pod, ok := f.pods[podKey(namespace, name)]
	if !ok {
		return nil, apierrors.NewNotFound(corev1.Resource("pods"), name)
	}

	current := pod.ResourceVersion
	if current == "" {
		return nil, fmt.Errorf("pod %s/%s has no resourceVersion", namespace, name)
	}
	if current != expectedVersion {
		return nil, apierrors.NewConflict(corev1.Resource("pods"), name,
			fmt.Errorf("resourceVersion mismatch: expected %s, have %s", expectedVersion, current))
	}

	updated := pod.DeepCopy()
	if updated.Labels == nil {
		updated.Labels = make(map[string]string, len(labels))
	}
	for key, value := range labels {
		updated.Labels[key] = value
	}

	version, _ := strconv.ParseUint(current, 10, 64)
	updated.ResourceVersion = strconv.FormatUint(version+1, 10)

	f.pods[podKey(namespace, name)] = updated
	return updated.DeepCopy(), nil
}

func podKey(namespace, name string) string {
	return namespace + "/" + name
}
