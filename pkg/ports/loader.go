package ports

// ScriptSource defines where the library reads script text from.
// This allows the storage layer (directory, embedded FS, memory) to be decoupled.
type ScriptSource interface {
	// Read returns the raw script text for name.
	// Returns domain.ErrScriptNotFound if there is no such script.
	Read(name string) ([]byte, error)

	// List returns the names of every available script, sorted.
	List() ([]string, error)
}
