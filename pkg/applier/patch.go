package applier

import (
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/jsonmergepatch"
	"k8s.io/apimachinery/pkg/util/mergepatch"
	"k8s.io/apimachinery/pkg/util/strategicpatch"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/kubectl/pkg/util"
)

// emptyPatch is the serialization of a patch that changes nothing.
const emptyPatch = "{}"

// threeWayMergePatch calculates the patch that moves current into the
// intended state the same way `kubectl apply` does: the last-applied
// configuration recorded on current supplies the original, so fields removed
// from the intended state are pruned while fields set by other actors stay
// untouched.
//
// Kinds registered in the client-go scheme get a strategic merge patch.
// Everything else falls back to a JSON merge patch with preconditions
// guarding apiVersion, kind, and name.
func threeWayMergePatch(intended, current *unstructured.Unstructured) (types.PatchType, []byte, error) {
	currentJSON, err := runtime.Encode(unstructured.UnstructuredJSONScheme, current)
	if err != nil {
		return "", nil, errors.Wrap(err, "could not serialize current configuration")
	}

	previous, err := util.GetOriginalConfiguration(current)
	if err != nil {
		return "", nil, errors.Wrap(err, "could not retrieve last applied configuration")
	}

	modified, err := util.GetModifiedConfiguration(intended, true, unstructured.UnstructuredJSONScheme)
	if err != nil {
		return "", nil, errors.Wrap(err, "could not serialize intended configuration")
	}

	gvk := intended.GroupVersionKind()
	versionedObject, sErr := scheme.Scheme.New(gvk)
	switch {
	case runtime.IsNotRegisteredError(sErr):
		preconditions := []mergepatch.PreconditionFunc{
			mergepatch.RequireKeyUnchanged("apiVersion"),
			mergepatch.RequireKeyUnchanged("kind"),
			mergepatch.RequireMetadataKeyUnchanged("name"),
		}
		patch, err := jsonmergepatch.CreateThreeWayJSONMergePatch(previous, modified, currentJSON, preconditions...)
		if err != nil {
			if mergepatch.IsPreconditionFailed(err) {
				return "", nil, errors.New("at least one of apiVersion, kind and name was changed")
			}
			return "", nil, errors.Wrap(err, "could not calculate the patch")
		}
		return types.MergePatchType, patch, nil
	case sErr != nil:
		return "", nil, errors.Wrapf(sErr, "could not get an instance of versioned object %s", gvk)
	default:
		lookupPatchMeta, err := strategicpatch.NewPatchMetaFromStruct(versionedObject)
		if err != nil {
			return "", nil, errors.Wrap(err, "could not look up patch metadata")
		}
		patch, err := strategicpatch.CreateThreeWayMergePatch(previous, modified, currentJSON, lookupPatchMeta, true)
		if err != nil {
			return "", nil, errors.Wrap(err, "could not calculate the patch")
		}
		return types.StrategicMergePatchType, patch, nil
	}
}
