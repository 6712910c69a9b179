package metastore

// Store defines the interface for clip metadata operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Store interface {
	UpsertClip(c ClipRow) error
	DeleteClip(path string) error
	GetClip(path string) (*ClipRow, error)
	ListClips(limit, offset int, tag, sort string) ([]ClipRow, int, error)
	SetMetadata(path string, tags []string, description string) error
	RenameClip(oldPath, newPath string) error
	AllStats() (map[string]FileStat, error)
	AllTags() ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
