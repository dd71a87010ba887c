package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestParseFile(t *testing.T) {
	testCases := []struct {
		name      string
		path      string
		contents  string
		expected  []*unstructured.Unstructured
		expectErr bool
	}{
		{
			name: "empty yaml file",
			path: "namespaces/empty.yaml",
		},
		{
			name:     "comments only",
			path:     "namespaces/comments.yaml",
			contents: "# comment\n\n# another comment\n",
		},
		{
			name: "one document",
			path: "namespaces/ns.yaml",
			contents: `apiVersion: v1
kind: Namespace
metadata:
  name: shipping
`,
			expected: []*unstructured.Unstructured{
				{
					Object: map[string]interface{}{
						"apiVersion": "v1",
						"kind":       "Namespace",
						"metadata": map[string]interface{}{
							"name": "shipping",
						},
					},
				}},
		},
		{
			name: "one document with triple-dash in a string",
			path: "namespaces/ns.yaml",
			contents: `apiVersion: v1
kind: Namespace
metadata:
  name: shipping
  labels:
    "a": "---"
`,
			expected: []*unstructured.Unstructured{
				{
					Object: map[string]interface{}{
						"apiVersion": "v1",
						"kind":       "Namespace",
						"metadata": map[string]interface{}{
							"name": "shipping",
							"labels": map[string]interface{}{
								"a": "---",
							},
						},
					},
				}},
		},
		{
			name: "two documents",
			path: "namespaces/objects.yaml",
			contents: `apiVersion: v1
kind: Namespace
metadata:
  name: shipping
---
apiVersion: rbac.authorization.k8s.io/v1
kind: Role
metadata:
  name: admin
  namespace: shipping
rules:
- apiGroups: [rbac.authorization.k8s.io]
  verbs: [all]
`,
			expected: []*unstructured.Unstructured{
				{
					Object: map[string]interface{}{
						"apiVersion": "v1",
						"kind":       "Namespace",
						"metadata": map[string]interface{}{
							"name": "shipping",
						},
					},
				},
				{
					Object: map[string]interface{}{
						"apiVersion": "rbac.authorization.k8s.io/v1",
						"kind":       "Role",
						"metadata": map[string]interface{}{
							"name":      "admin",
							"namespace": "shipping",
						},
						"rules": []interface{}{
							map[string]interface{}{
								"apiGroups": []interface{}{"rbac.authorization.k8s.io"},
								"verbs":     []interface{}{"all"},
							},
						},
					},
				},
			},
		},
		{
			name:      "invalid yaml",
			path:      "namespaces/invalid.yaml",
			contents:  "This is not a manifest.",
			expectErr: true,
		},
		{
			name:     "json document",
			path:     "namespaces/ns.json",
			contents: `{"apiVersion": "v1", "kind": "Namespace", "metadata": {"name": "shipping"}}`,
			expected: []*unstructured.Unstructured{
				{
					Object: map[string]interface{}{
						"apiVersion": "v1",
						"kind":       "Namespace",
						"metadata": map[string]interface{}{
							"name": "shipping",
						},
					},
				}},
		},
		{
			name: "empty json file",
			path: "namespaces/empty.json",
		},
		{
			name:      "invalid json",
			path:      "namespaces/invalid.json",
			contents:  `{"apiVersion": "v1"`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ParseFile(tc.path, []byte(tc.contents))
			if tc.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			} else if err != nil {
				t.Fatal(errors.Wrap(err, "unexpected error"))
			}

			if diff := cmp.Diff(tc.expected, actual); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
