package sync

// FullSyncResult reports the outcome of a full resync.
type FullSyncResult struct {
	Success      bool     `json:"success"`
	FilesAdded   int      `json:"files_added"`
	FilesUpdated int      `json:"files_updated"`
	FilesDeleted int      `json:"files_deleted"`
	Errors       []string `json:"errors,omitempty"`
}

// IncrementalSyncResult reports the outcome of a cursor-driven sync.
type IncrementalSyncResult struct {
	Success          bool     `json:"success"`
	ChangesProcessed int      `json:"changes_processed"`
	FilesAdded       int      `json:"files_added"`
	FilesUpdated     int      `json:"files_updated"`
	FilesDeleted     int      `json:"files_deleted"`
	Errors           []string `json:"errors,omitempty"`
}
