package seek

// SeekMeta is the observable state of the most recent historical range
// lookup. A failed lookup sets Error and keeps EstimatedDeltaCount and
// SnapshotID from the last success, so "fresh and empty" and "failed,
// showing last known" stay distinguishable.
type SeekMeta struct {
	Loading             bool   `json:"loading"`
	EstimatedDeltaCount uint32 `json:"estimated_delta_count"`
	SnapshotID          string `json:"snapshot_id,omitempty"`
	Error               string `json:"error,omitempty"`
	UpdatedAtMs         int64  `json:"updated_at_ms"`
}
