// Package v1alpha1 contains API Schema definitions for the gitops.coxswain.dev
// v1alpha1 API group.
//
// +k8s:deepcopy-gen=package,register
// +groupName=gitops.coxswain.dev
package v1alpha1
