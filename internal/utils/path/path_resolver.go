package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// homeShortcutPrefixes lists the "~/" forms accepted on this platform.
var homeShortcutPrefixes = uniquePrefixes(homeShortcutConstant+"/", homeShortcutConstant+string(os.PathSeparator))

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// PathResolver anchors configured paths such as the sync script or the clone directory to the run's
// working directory. The home directory is looked up at most once.
type PathResolver struct {
	homeDirectory func() (string, error)
}

// NewPathResolver constructs a PathResolver using the operating system home lookup.
func NewPathResolver() *PathResolver {
	return NewPathResolverWithProvider(os.UserHomeDir)
}

// NewPathResolverWithProvider constructs a PathResolver with a custom home directory provider.
func NewPathResolverWithProvider(provider HomeDirectoryProvider) *PathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &PathResolver{homeDirectory: sync.OnceValues(provider)}
}

// ExpandHome replaces a leading "~" or "~/" with the home directory. Paths are returned unchanged when the
// home directory cannot be determined.
func (resolver *PathResolver) ExpandHome(candidatePath string) string {
	if resolver == nil || !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return candidatePath
	}

	homeDirectory, homeError := resolver.homeDirectory()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == homeShortcutConstant {
		return homeDirectory
	}
	for _, prefix := range homeShortcutPrefixes {
		if remainder, found := strings.CutPrefix(candidatePath, prefix); found {
			return filepath.Join(homeDirectory, remainder)
		}
	}

	// "~user" forms are not expanded.
	return candidatePath
}

// Resolve trims whitespace, expands the home directory, and joins relative results onto baseDirectory.
// Empty input stays empty.
func (resolver *PathResolver) Resolve(baseDirectory string, candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}

	expandedPath := resolver.ExpandHome(trimmedPath)
	if filepath.IsAbs(expandedPath) || len(baseDirectory) == 0 {
		return filepath.Clean(expandedPath)
	}

	return filepath.Join(baseDirectory, expandedPath)
}

func uniquePrefixes(prefixes ...string) []string {
	unique := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if len(unique) > 0 && unique[len(unique)-1] == prefix {
			continue
		}
		unique = append(unique, prefix)
	}
	return unique
}
