package moor

import (
	"maps"

	"github.com/docker/docker/api/types/filters"
)

// MergeLabels merges multiple label maps, with later maps overriding
// earlier ones. Returns a new map containing all labels.
func MergeLabels(labelMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range labelMaps {
		maps.Copy(result, m)
	}
	return result
}

// LabelFilter creates a Docker filter for a single label key=value.
// The key should include the prefix (e.g. "dev.gantry.managed").
func LabelFilter(key, value string) filters.Args {
	return filters.NewArgs(filters.Arg("label", key+"="+value))
}

// MergeLabelFilters adds label filters for every pair in labels to an
// existing filters.Args.
func MergeLabelFilters(f filters.Args, labels map[string]string) filters.Args {
	if f.Len() == 0 {
		f = filters.NewArgs()
	}
	for k, v := range labels {
		f.Add("label", k+"="+v)
	}
	return f
}
