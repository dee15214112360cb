package directory

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubeDirectory implements Interface against a real Kubernetes API
// server using a client-go clientset.
type KubeDirectory struct {
	client kubernetes.Interface
}

// NewKubeDirectory builds a directory from in-cluster configuration,
// falling back to the given kubeconfig path when not running in a pod.
func NewKubeDirectory(kubeconfig string) (*KubeDirectory, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return &KubeDirectory{client: client}, nil
}

// NewKubeDirectoryFromClient wraps an existing clientset. Used by tests
// with a fake clientset.
func NewKubeDirectoryFromClient(client kubernetes.Interface) *KubeDirectory {
	return &KubeDirectory{client: client}
}

func (d *KubeDirectory) List(ctx context.Context, namespace, selector string) ([]corev1.Pod, error) {
	podList, err := d.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return podList.Items, nil
}

func (d *KubeDirectory) Get(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	pod, err := d.client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return pod, nil
}

// PatchLabels submits a strategic merge patch carrying both the label
// delta and the expected resourceVersion. The API server rejects the
// patch with 409 Conflict when the stored version has moved on, which
// client-go surfaces as an error satisfying apierrors.IsConflict.
func (d *KubeDirectory) PatchLabels(ctx context.Context, namespace, name string, labels map[string]string, expectedVersion string) (*corev1.Pod, error) {
	patch := map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels":          labels,
			"resourceVersion": expectedVersion,
		},
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal label patch: %w", err)
	}

	pod, err := d.client.CoreV1().Pods(namespace).Patch(ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}
	return pod, nil
}
