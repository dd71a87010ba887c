package kinds

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	schedulingv1 "k8s.io/api/scheduling/v1"
	storagev1 "k8s.io/api/storage/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
)

// Anvil returns the GroupVersionKind for the Anvil Custom Resource used in tests.
func Anvil() schema.GroupVersionKind {
	return schema.GroupVersionKind{
		Group:   "acme.com",
		Version: "v1",
		Kind:    "Anvil",
	}
}

// Application returns the canonical Application GroupVersionKind.
func Application() schema.GroupVersionKind {
	return v1alpha1.SchemeGroupVersion.WithKind("Application")
}

// Namespace returns the canonical Namespace GroupVersionKind.
func Namespace() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("Namespace")
}

// ConfigMap returns the canonical ConfigMap GroupVersionKind.
func ConfigMap() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("ConfigMap")
}

// Service returns the canonical Service GroupVersionKind.
func Service() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("Service")
}

// Endpoints returns the canonical Endpoints GroupVersionKind.
func Endpoints() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("Endpoints")
}

// PersistentVolume returns the canonical PersistentVolume GroupVersionKind.
func PersistentVolume() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("PersistentVolume")
}

// Node returns the canonical Node GroupVersionKind.
func Node() schema.GroupVersionKind {
	return corev1.SchemeGroupVersion.WithKind("Node")
}

// StorageClass returns the canonical StorageClass GroupVersionKind.
func StorageClass() schema.GroupVersionKind {
	return storagev1.SchemeGroupVersion.WithKind("StorageClass")
}

// PriorityClass returns the canonical PriorityClass GroupVersionKind.
func PriorityClass() schema.GroupVersionKind {
	return schedulingv1.SchemeGroupVersion.WithKind("PriorityClass")
}

// Deployment returns the canonical Deployment GroupVersionKind.
func Deployment() schema.GroupVersionKind {
	return appsv1.SchemeGroupVersion.WithKind("Deployment")
}

// StatefulSet returns the canonical StatefulSet GroupVersionKind.
func StatefulSet() schema.GroupVersionKind {
	return appsv1.SchemeGroupVersion.WithKind("StatefulSet")
}

// Ingress returns the canonical Ingress GroupVersionKind.
func Ingress() schema.GroupVersionKind {
	return networkingv1.SchemeGroupVersion.WithKind("Ingress")
}

// Role returns the canonical Role GroupVersionKind.
func Role() schema.GroupVersionKind {
	return rbacv1.SchemeGroupVersion.WithKind("Role")
}

// RoleBinding returns the canonical RoleBinding GroupVersionKind.
func RoleBinding() schema.GroupVersionKind {
	return rbacv1.SchemeGroupVersion.WithKind("RoleBinding")
}

// ClusterRole returns the canonical ClusterRole GroupVersionKind.
func ClusterRole() schema.GroupVersionKind {
	return rbacv1.SchemeGroupVersion.WithKind("ClusterRole")
}

// ClusterRoleBinding returns the canonical ClusterRoleBinding GroupVersionKind.
func ClusterRoleBinding() schema.GroupVersionKind {
	return rbacv1.SchemeGroupVersion.WithKind("ClusterRoleBinding")
}

// CustomResourceDefinitionKind is the Kind for CustomResourceDefinitions.
const CustomResourceDefinitionKind = "CustomResourceDefinition"

// CustomResourceDefinition returns the canonical CustomResourceDefinition GroupKind.
func CustomResourceDefinition() schema.GroupKind {
	return schema.GroupKind{
		Group: apiextensionsv1.GroupName,
		Kind:  CustomResourceDefinitionKind,
	}
}
