package tsdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// shardPath maps a calendar date to its shard file path, rooted at root.
// Path construction is the sole source of truth; every other component in
// this package calls this function rather than building paths itself.
func shardPath(root string, date time.Time) string {
	return filepath.Join(
		root,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d.txt", date.Day()),
	)
}

// shardPaths enumerates every shard file beneath root, in lexical (and
// therefore chronological, given the zero-padded layout) order.
func shardPaths(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if d.IsDir() {
			return nil
		}

		if filepath.Ext(path) == ".txt" {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("error walking %q: %w", root, err)
	}

	sort.Strings(paths)

	return paths, nil
}
