package core

// GetAnnotation gets one of the annotations from the Object, or the empty
// string if the annotation is not present.
func GetAnnotation(obj Object, annotation string) string {
	as := obj.GetAnnotations()
	if as == nil {
		return ""
	}
	return as[annotation]
}

// SetAnnotation sets the annotation on the passed annotated object to value.
func SetAnnotation(obj Object, annotation, value string) {
	as := obj.GetAnnotations()
	if as == nil {
		as = make(map[string]string)
	}
	as[annotation] = value
	obj.SetAnnotations(as)
}

// AddAnnotations adds the specified annotations to the object.
func AddAnnotations(obj Object, annotations map[string]string) {
	as := obj.GetAnnotations()
	if as == nil {
		as = make(map[string]string, len(annotations))
	}
	for annotation, value := range annotations {
		as[annotation] = value
	}
	obj.SetAnnotations(as)
}

// RemoveAnnotations removes the passed set of annotations from obj.
func RemoveAnnotations(obj Object, annotations ...string) {
	as := obj.GetAnnotations()
	for _, a := range annotations {
		delete(as, a)
	}
	obj.SetAnnotations(as)
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
