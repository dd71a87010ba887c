package core

// GetLabel gets one of the labels from the Object, or the empty string if the
// label is not present.
func GetLabel(obj Object, label string) string {
	ls := obj.GetLabels()
	if ls == nil {
		return ""
	}
	return ls[label]
}

// SetLabel sets the label on the passed labeled object to value.
func SetLabel(obj Object, label, value string) {
	ls := obj.GetLabels()
	if ls == nil {
		ls = make(map[string]string)
	}
	ls[label] = value
	obj.SetLabels(ls)
}

// AddLabels adds the specified labels to the object.
func AddLabels(obj Object, labels map[string]string) {
	ls := obj.GetLabels()
	if ls == nil {
		ls = make(map[string]string, len(labels))
	}
	for label, value := range labels {
		ls[label] = value
	}
	obj.SetLabels(ls)
}

// RemoveLabels removes the passed set of labels from obj.
func RemoveLabels(obj Object, labels ...string) {
	ls := obj.GetLabels()
	for _, l := range labels {
		delete(ls, l)
	}
	obj.SetLabels(ls)
}
