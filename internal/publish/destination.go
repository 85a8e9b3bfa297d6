package publish

import (
	"errors"
	"fmt"
	"strings"
)

// ExternalFolderPrefix selects the Dropbox business folder as destination
const ExternalFolderPrefix = "dropbox::"

// Kind is the kind of a publish destination
type Kind int

const (
	// KindLocal is a filesystem path, absolute or relative to the working directory
	KindLocal Kind = iota
	// KindExternalFolder is a path relative to the Dropbox business folder
	KindExternalFolder
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindExternalFolder:
		return "dropbox"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Destination is a parsed destination descriptor
type Destination struct {
	Kind Kind
	// Path is the literal local path, or the path below the external folder
	Path string
}

// ParseDestination parses "dropbox::<rel>" or a plain filesystem path
func ParseDestination(s string) (Destination, error) {
	if rel, ok := strings.CutPrefix(s, ExternalFolderPrefix); ok {
		rel = strings.TrimLeft(rel, `/\`)
		if rel == "" {
			return Destination{}, errors.New("dropbox destination requires a path")
		}
		return Destination{Kind: KindExternalFolder, Path: rel}, nil
	}
	if strings.TrimSpace(s) == "" {
		return Destination{}, errors.New("destination cannot be empty")
	}
	return Destination{Kind: KindLocal, Path: s}, nil
}

// String returns the descriptor form of d
func (d Destination) String() string {
	if d.Kind == KindExternalFolder {
		return ExternalFolderPrefix + d.Path
	}
	return d.Path
}
