package session

// DeviceContext carries optional client metadata snapshotted at admit time.
type DeviceContext struct {
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
}

// Record is the persisted state of a single session.
//
// A Record is immutable after admit except for LastActivityAt, which is bumped
// on every successful read, and Extension, which accepts shallow merges.
// PrincipalID never changes. Email, RoleID, and Capabilities are denormalized
// claims snapshotted at creation time; they are not re-synced from the user
// record while the session lives.
type Record struct {
	SessionID   string `json:"-"`
	PrincipalID string `json:"principal_id"`

	Email        string   `json:"email"`
	RoleID       string   `json:"role_id"`
	Capabilities []string `json:"capabilities,omitempty"`

	CreatedAt      int64 `json:"created_at"`
	LastActivityAt int64 `json:"last_activity_at"`

	Device    *DeviceContext         `json:"device,omitempty"`
	Extension map[string]interface{} `json:"extension,omitempty"`
}

// MergeExtension applies a shallow merge of patch into the record's extension
// bag. Keys in patch overwrite matching keys; other existing keys are kept.
func (r *Record) MergeExtension(patch map[string]interface{}) {
	if len(patch) == 0 {
		return
	}
	if r.Extension == nil {
		r.Extension = make(map[string]interface{}, len(patch))
	}
	for k, v := range patch {
		r.Extension[k] = v
	}
}
