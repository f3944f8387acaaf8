package pipeline

// State is a position in the acquisition sequence.
type State int

const (
	StateIdle State = iota
	StateDirectoryReady
	StateToolReady
	StateCatalogFetched
	StateArchiveDownloaded
	StateExtracted
	StateInstalled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDirectoryReady:
		return "DirectoryReady"
	case StateToolReady:
		return "ToolReady"
	case StateCatalogFetched:
		return "CatalogFetched"
	case StateArchiveDownloaded:
		return "ArchiveDownloaded"
	case StateExtracted:
		return "Extracted"
	case StateInstalled:
		return "Installed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
