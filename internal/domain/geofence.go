package domain

// Contains reports whether p lies inside the closed ring using the even-odd
// ray-casting rule: a horizontal ray from p crosses the ring an odd number of
// times iff p is inside. Rings with fewer than four vertices (including the
// repeated closing vertex) never contain anything.
//
// Points exactly on a vertex or edge follow the crossing arithmetic; the
// result is deterministic but boundary inclusion is not guaranteed.
func Contains(p Point, ring []Point) bool {
	if len(ring) < 4 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			crossLon := (vj.Lon-vi.Lon)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lon
			if p.Lon < crossLon {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PolygonsContaining filters the snapshot to the polygons whose ring contains p.
func PolygonsContaining(p Point, polys []WarningPolygon) []WarningPolygon {
	var matched []WarningPolygon
	for _, poly := range polys {
		if Contains(p, poly.Ring) {
			matched = append(matched, poly)
		}
	}
	return matched
}

// HighestPriority returns the event type of the most severe polygon in the
// set, discarding lower buckets. Ties within a bucket keep the first polygon
// encountered. The second return is false when the set is empty.
func HighestPriority(polys []WarningPolygon) (EventType, bool) {
	var (
		best     EventType
		bestRank int
	)
	for _, poly := range polys {
		if r := poly.Event.SeverityRank(); r > bestRank {
			best = poly.Event
			bestRank = r
		}
	}
	return best, bestRank > 0
}
