package models

// Status describes the running service and its index.
type Status struct {
	State          string   `json:"state"`
	Clauses        int      `json:"clauses"`
	Documents      int64    `json:"documents"`
	Dimensions     int      `json:"dimensions"`
	IndexType      string   `json:"index_type"`
	DedupPolicy    string   `json:"dedup_policy"`
	SnapshotPath   string   `json:"snapshot_path"`
	DiskUsageBytes int64    `json:"disk_usage_bytes"`
	Embedder       string   `json:"embedder"`
	LLM            string   `json:"llm"`
	WatchedDirs    []string `json:"watched_directories,omitempty"`
	WatchIngested  int64    `json:"watch_ingested,omitempty"`
	WatchFailed    int64    `json:"watch_failed,omitempty"`
}
