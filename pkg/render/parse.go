package render

import (
	"path"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes/scheme"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// ParseFile parses the manifest file at filePath into unstructured objects.
// JSON files must hold exactly one object; everything else is parsed as
// (possibly multi-document) YAML.
func ParseFile(filePath string, contents []byte) ([]*unstructured.Unstructured, status.Error) {
	if path.Ext(filePath) == ".json" {
		return parseJSON(filePath, contents)
	}
	return parseYAML(filePath, contents)
}

func isEmptyYAMLDocument(document string) bool {
	lines := strings.Split(document, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			// Ignore empty/whitespace-only lines.
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			// Ignore comment lines.
			continue
		}
		return false
	}
	return true
}

func parseYAML(filePath string, contents []byte) ([]*unstructured.Unstructured, status.Error) {
	// We have to manually split documents with the YAML separator since by
	// default yaml.Unmarshal only unmarshalls the first document, but a file
	// may contain multiple.
	var result []*unstructured.Unstructured

	// A newline followed by triple-dash begins a new YAML document, so this
	// is safe.
	documents := strings.Split(string(contents), "\n---")
	for _, document := range documents {
		if isEmptyYAMLDocument(document) {
			// Kubernetes ignores empty documents.
			continue
		}

		var u unstructured.Unstructured
		_, _, err := scheme.Codecs.UniversalDeserializer().Decode([]byte(document), nil, &u)
		if err != nil {
			return nil, renderErrorBuilder.Wrap(err).
				Sprintf("unable to parse manifest document").
				BuildWithPaths(filePath)
		}
		result = append(result, &u)
	}

	return result, nil
}

func parseJSON(filePath string, contents []byte) ([]*unstructured.Unstructured, status.Error) {
	if len(contents) == 0 {
		// While an empty file is not valid JSON, Kubernetes allows empty
		// JSON files when applying multiple files.
		return nil, nil
	}
	// Kubernetes does not recognize arrays of Kubernetes objects in JSON
	// files. A single file must contain exactly one Kubernetes object.
	var u unstructured.Unstructured
	if err := u.UnmarshalJSON(contents); err != nil {
		return nil, renderErrorBuilder.Wrap(err).
			Sprintf("unable to parse manifest document").
			BuildWithPaths(filePath)
	}
	return []*unstructured.Unstructured{&u}, nil
}
