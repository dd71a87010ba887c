package render

import (
	"fmt"
	"reflect"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// listMergeKeys declares the merge key for list fields that merge per
// element. The keys are tried in order; the first one present on a patch
// element is used. List fields not in this table replace wholesale.
var listMergeKeys = map[string][]string{
	"containers":     {"name"},
	"initContainers": {"name"},
	"volumes":        {"name"},
	"env":            {"name"},
	"ports":          {"containerPort", "port"},
}

// mergeMaps merges patch into base recursively and returns the result. A nil
// patch value deletes the field. Scalar fields take the patch value. A patch
// value whose type conflicts with the base value (map patched over scalar,
// list over map, and so on) is an error.
func mergeMaps(base, patch map[string]interface{}, fieldPath string) (map[string]interface{}, status.Error) {
	result := make(map[string]interface{}, len(base)+len(patch))
	for key, value := range base {
		result[key] = value
	}

	for key, patchValue := range patch {
		childPath := extendFieldPath(fieldPath, key)

		if patchValue == nil {
			delete(result, key)
			continue
		}

		baseValue, ok := result[key]
		if !ok || baseValue == nil {
			result[key] = patchValue
			continue
		}

		switch baseTyped := baseValue.(type) {
		case map[string]interface{}:
			patchTyped, ok := patchValue.(map[string]interface{})
			if !ok {
				return nil, typeConflict(childPath, baseValue, patchValue)
			}
			merged, err := mergeMaps(baseTyped, patchTyped, childPath)
			if err != nil {
				return nil, err
			}
			result[key] = merged
		case []interface{}:
			patchTyped, ok := patchValue.([]interface{})
			if !ok {
				return nil, typeConflict(childPath, baseValue, patchValue)
			}
			merged, err := mergeLists(baseTyped, patchTyped, key, childPath)
			if err != nil {
				return nil, err
			}
			result[key] = merged
		default:
			switch patchValue.(type) {
			case map[string]interface{}, []interface{}:
				return nil, typeConflict(childPath, baseValue, patchValue)
			}
			result[key] = patchValue
		}
	}

	return result, nil
}

// mergeLists merges a patch list into a base list. Fields with a declared
// merge key merge per element: elements whose key matches a base element
// merge into it, the rest are appended in patch order. Keyless lists replace
// wholesale.
func mergeLists(base, patch []interface{}, field, fieldPath string) ([]interface{}, status.Error) {
	keys, keyed := listMergeKeys[field]
	if !keyed {
		return patch, nil
	}

	result := make([]interface{}, len(base))
	copy(result, base)

	for _, element := range patch {
		patchElement, ok := element.(map[string]interface{})
		if !ok {
			return nil, RenderError("field %s merges by key %q but the patch element %v is not a map",
				fieldPath, keys[0], element)
		}
		mergeKey, mergeValue, found := mergeKeyOf(patchElement, keys)
		if !found {
			return nil, RenderError("field %s merges by key %q but a patch element does not set it",
				fieldPath, keys[0])
		}

		index := findListElement(result, mergeKey, mergeValue)
		if index < 0 {
			result = append(result, element)
			continue
		}

		baseElement, ok := result[index].(map[string]interface{})
		if !ok {
			return nil, typeConflict(fieldPath, result[index], element)
		}
		merged, err := mergeMaps(baseElement, patchElement, fmt.Sprintf("%s[%s=%v]", fieldPath, mergeKey, mergeValue))
		if err != nil {
			return nil, err
		}
		result[index] = merged
	}

	return result, nil
}

// mergeKeyOf returns the first declared merge key the element sets, with its
// value.
func mergeKeyOf(element map[string]interface{}, keys []string) (string, interface{}, bool) {
	for _, key := range keys {
		if value, ok := element[key]; ok {
			return key, value, true
		}
	}
	return "", nil, false
}

func findListElement(list []interface{}, key string, value interface{}) int {
	for i, element := range list {
		m, ok := element.(map[string]interface{})
		if !ok {
			continue
		}
		if reflect.DeepEqual(m[key], value) {
			return i
		}
	}
	return -1
}

func typeConflict(fieldPath string, baseValue, patchValue interface{}) status.Error {
	return RenderError("patch for field %s is a %s but the base field is a %s",
		fieldPath, describeType(patchValue), describeType(baseValue))
}

func describeType(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}:
		return "map"
	case []interface{}:
		return "list"
	default:
		return "scalar"
	}
}

func extendFieldPath(fieldPath, key string) string {
	if fieldPath == "" {
		return key
	}
	return fieldPath + "." + key
}
