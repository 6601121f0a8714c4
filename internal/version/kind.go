// Package version discovers release kinds and determines which kind and
// version a branch name or release command targets.
package version

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

// ErrNoReleaseKinds is returned when no valhalla*.yml file exists in the tree.
var ErrNoReleaseKinds = errors.New("could not find any valhalla file! You have to have at least one file matching " +
	"valhalla*.yml f.e. valhalla.yml. You can define valhalla-hotfix.yml but remember to use release-hotfix-* " +
	"branch to start the valhalla process")

var kindFilePattern = regexp.MustCompile(`^valhalla(.*)\.yml$`)

// ReleaseKind is one discovered release configuration file.
type ReleaseKind struct {
	// Filename is the matched file name, e.g. valhalla-hotfix.yml.
	Filename string
	// Suffix is the part between "valhalla" and ".yml"; empty for the main kind.
	Suffix string
	// Path is the directory the file was found in.
	Path string
}

// ConfigFilePath returns the location of the kind's configuration file.
func (k ReleaseKind) ConfigFilePath() string {
	return filepath.Join(k.Path, k.Filename)
}

// IsDefault reports whether this is the main (suffix-less) kind.
func (k ReleaseKind) IsDefault() bool {
	return k.Suffix == ""
}

func (k ReleaseKind) String() string {
	return fmt.Sprintf("filename=%s, suffix=%s, path=%s", k.Filename, k.Suffix, k.Path)
}

// ReleaseKinds walks root on the local filesystem. See DiscoverReleaseKinds.
func ReleaseKinds(log *zap.SugaredLogger, root string) ([]ReleaseKind, error) {
	if wd, err := os.Getwd(); err == nil {
		log.Infof("Current pwd: %s", wd)
	}
	return DiscoverReleaseKinds(log, osfs.New(root), root)
}

// DiscoverReleaseKinds walks every directory of fs and records a
// ReleaseKind for each file named valhalla*.yml. Paths in the result are
// reported relative to root. Order within a directory is not guaranteed,
// callers must identify kinds by suffix or filename.
func DiscoverReleaseKinds(log *zap.SugaredLogger, fs billy.Filesystem, root string) ([]ReleaseKind, error) {
	log.Infof("Searching for valhalla*.yml files in: %s", root)

	var kinds []ReleaseKind
	err := util.Walk(fs, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		m := kindFilePattern.FindStringSubmatch(info.Name())
		if m == nil {
			return nil
		}
		kinds = append(kinds, ReleaseKind{
			Filename: info.Name(),
			Suffix:   m[1],
			Path:     filepath.Join(root, filepath.FromSlash(path.Dir(filepath.ToSlash(p)))),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching release kinds in %s: %w", root, err)
	}

	for _, k := range kinds {
		log.Infof("Found: %s", k)
	}

	if len(kinds) == 0 {
		return nil, ErrNoReleaseKinds
	}

	return kinds, nil
}
