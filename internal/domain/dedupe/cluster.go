package dedupe

import "sort"

// ConfidenceLevel buckets a duplicate suggestion's confidence for display.
// The bands are looser than transaction-confidence bands: registry cleanup
// tolerates more false positives because every merge is human-reviewed.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 80:
		return "high"
	case confidence >= 55:
		return "medium"
	default:
		return "low"
	}
}

// ClusterDuplicateVendors groups suggestions into connected components so
// that chains (A~B, B~C) surface as one reviewable cluster instead of
// independent pairs. Only suggestions at or above minConfidence contribute
// edges; pass 0 for the default threshold.
//
// The returned map is keyed by a representative vendor ID (the target of
// the first suggestion that opened the cluster) with sorted member IDs.
func ClusterDuplicateVendors(suggestions []DuplicateSuggestion, minConfidence float64) map[string][]string {
	if minConfidence == 0 {
		minConfidence = DefaultMinClusterConfidence
	}

	clusters := make(map[string]map[string]bool)
	vendorToCluster := make(map[string]string)

	for _, suggestion := range suggestions {
		if suggestion.Confidence < minConfidence {
			continue
		}

		sourceID := suggestion.SourceVendor.ID
		targetID := suggestion.TargetVendor.ID

		sourceCluster, sourceOK := vendorToCluster[sourceID]
		targetCluster, targetOK := vendorToCluster[targetID]

		switch {
		case sourceOK && targetOK && sourceCluster != targetCluster:
			// Both vendors already clustered: fold the target's cluster
			// into the source's.
			for id := range clusters[targetCluster] {
				clusters[sourceCluster][id] = true
				vendorToCluster[id] = sourceCluster
			}
			delete(clusters, targetCluster)

		case sourceOK && targetOK:
			// Already in the same cluster.

		case sourceOK:
			clusters[sourceCluster][targetID] = true
			vendorToCluster[targetID] = sourceCluster

		case targetOK:
			clusters[targetCluster][sourceID] = true
			vendorToCluster[sourceID] = targetCluster

		default:
			clusters[targetID] = map[string]bool{sourceID: true, targetID: true}
			vendorToCluster[sourceID] = targetID
			vendorToCluster[targetID] = targetID
		}
	}

	result := make(map[string][]string, len(clusters))
	for rep, members := range clusters {
		ids := make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		result[rep] = ids
	}

	return result
}
