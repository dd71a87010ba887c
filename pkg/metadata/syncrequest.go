package metadata

import (
	"encoding/json"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// SyncRequest asks the reconciler to run a sync regardless of the
// Application's sync policy. It is serialized as JSON into the
// SyncRequestAnnotationKey annotation.
type SyncRequest struct {
	// ID is a unique token echoed back in the resulting SyncResult, so the
	// requester can tell its result apart from earlier ones.
	ID string `json:"id"`

	// DryRun requests evaluation without touching the cluster.
	DryRun bool `json:"dryRun,omitempty"`

	// RequestedAt is when the request was made.
	RequestedAt metav1.Time `json:"requestedAt,omitempty"`
}

// NewSyncRequest returns a SyncRequest with a fresh unique token.
func NewSyncRequest(dryRun bool) SyncRequest {
	return SyncRequest{
		ID:          uuid.New().String(),
		DryRun:      dryRun,
		RequestedAt: metav1.Now(),
	}
}

// SetSyncRequest serializes the request onto the object's annotations.
func SetSyncRequest(obj core.Object, req SyncRequest) status.Error {
	data, err := json.Marshal(req)
	if err != nil {
		return status.InternalWrapf(err, "failed to encode sync request %q", req.ID)
	}
	core.SetAnnotation(obj, SyncRequestAnnotationKey, string(data))
	return nil
}

// GetSyncRequest deserializes a pending sync request from the object's
// annotations. Returns nil if no request is pending.
func GetSyncRequest(obj core.Object) (*SyncRequest, status.Error) {
	data := core.GetAnnotation(obj, SyncRequestAnnotationKey)
	if data == "" {
		return nil, nil
	}
	var req SyncRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, status.UndocumentedErrorBuilder.Wrap(err).
			Sprintf("invalid %s annotation %q", SyncRequestAnnotationKey, data).Build()
	}
	return &req, nil
}

// RemoveSyncRequest removes a pending sync request from the object's
// annotations.
func RemoveSyncRequest(obj core.Object) {
	core.RemoveAnnotations(obj, SyncRequestAnnotationKey)
}
