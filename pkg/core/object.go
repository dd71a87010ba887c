package core

import (
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Object is the interface all declared and live resources satisfy.
type Object = client.Object
