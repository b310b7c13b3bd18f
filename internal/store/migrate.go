package store

import "fmt"

// UnknownSchema reports a snapshot whose schema_version is newer than
// this build understands.
type UnknownSchema struct {
	Version int
}

func (e UnknownSchema) Error() string {
	return fmt.Sprintf("store: unknown schema version %d", e.Version)
}

// migration promotes a snapshot's encoded state from one schema
// version to the next.
type migration func(encoded string) (string, error)

// migrations is keyed by the version a migration promotes FROM. To
// load a snapshot at version v < SchemaVersion, apply migrations[v],
// migrations[v+1], ... in order until reaching SchemaVersion.
var migrations = map[int]migration{
	// No migrations yet: SchemaVersion has never changed since the
	// format's introduction. Add an entry here (e.g. migrations[1] =
	// promoteV1ToV2) the first time a field is added or renamed.
}

// Migrate promotes an encoded snapshot from fromVersion to
// SchemaVersion, or returns UnknownSchema if fromVersion is newer than
// this build supports.
func Migrate(encoded string, fromVersion int) (string, error) {
	if fromVersion > SchemaVersion {
		return "", UnknownSchema{Version: fromVersion}
	}
	for v := fromVersion; v < SchemaVersion; v++ {
		m, ok := migrations[v]
		if !ok {
			return "", fmt.Errorf("store: missing migration from schema version %d", v)
		}
		promoted, err := m(encoded)
		if err != nil {
			return "", fmt.Errorf("store: migration from version %d failed: %w", v, err)
		}
		encoded = promoted
	}
	return encoded, nil
}
