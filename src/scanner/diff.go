package scanner

import "slices"

// entryDiff is the result of comparing the names found in a directory on
// disk with the names the catalog knows about for the same directory.
type entryDiff struct {
	Create []string // on disk but not in the catalog
	Remove []string // in the catalog but no longer on disk
	Keep   []string // in both
}

// diffEntries compares two snapshots of a single directory level. All three
// result lists are sorted so that scans walk the tree in a stable order.
func diffEntries(onDisk, known []string) entryDiff {
	diskSet := make(map[string]struct{}, len(onDisk))
	for _, name := range onDisk {
		diskSet[name] = struct{}{}
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	var diff entryDiff
	for name := range diskSet {
		if _, ok := knownSet[name]; ok {
			diff.Keep = append(diff.Keep, name)
		} else {
			diff.Create = append(diff.Create, name)
		}
	}

	for name := range knownSet {
		if _, ok := diskSet[name]; !ok {
			diff.Remove = append(diff.Remove, name)
		}
	}

	slices.Sort(diff.Create)
	slices.Sort(diff.Remove)
	slices.Sort(diff.Keep)

	return diff
}
