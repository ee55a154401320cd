// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

// Cluster merges markers closer than meters into one marker.
//
// Clustering is greedy in input order: the first unvisited marker seeds a
// cluster and every later marker within meters of any member joins it, until
// no marker is left to join. The seed keeps its position and name; Count adds
// up the members.
func Cluster(markers []Marker, meters float64) []Marker {
	if meters <= 0 {
		return append([]Marker(nil), markers...)
	}

	out := make([]Marker, 0, len(markers))
	visited := make([]bool, len(markers))

	for i, seed := range markers {
		if visited[i] {
			continue
		}

		visited[i] = true
		members := []Marker{seed}

		// a marker skipped early may be near one that joined after it
		for grew := true; grew; {
			grew = false

			for j := i + 1; j < len(markers); j++ {
				if visited[j] {
					continue
				}

				for _, member := range members {
					if markers[j].Coordinate.HaversineDistance(member.Coordinate) <= meters {
						members = append(members, markers[j])
						visited[j] = true
						grew = true

						break
					}
				}
			}
		}

		merged := seed
		merged.Count = 0

		for _, m := range members {
			merged.Count += m.weight()
		}

		out = append(out, merged)
	}

	return out
}
