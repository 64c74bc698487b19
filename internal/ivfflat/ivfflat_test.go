package ivfflat

import "testing"

func gridIndex(t *testing.T) *Index {
	idx := New("embedding", 2, 4)
	idx.SetCentroids([][]float32{
		{0, 0}, {10, 0}, {0, 10}, {10, 10},
	})
	idx.Put(1, []float32{0, 1})
	idx.Put(2, []float32{1, 0})
	idx.Put(3, []float32{10, 1})
	idx.Put(4, []float32{0, 9})
	idx.Put(5, []float32{9, 9})
	return idx
}

func TestPutAssignsNearestCentroid(t *testing.T) {
	idx := gridIndex(t)
	lists := idx.InvertedLists()
	if len(lists[0]) != 2 {
		t.Fatalf("cluster 0 has %d entries, want 2", len(lists[0]))
	}
	if len(lists[3]) != 1 {
		t.Fatalf("cluster 3 has %d entries, want 1", len(lists[3]))
	}
}

func TestDeleteRemovesKeyFromAllLists(t *testing.T) {
	idx := gridIndex(t)
	idx.Delete(1)
	for _, list := range idx.InvertedLists() {
		for _, e := range list {
			if e.Key == 1 {
				t.Fatalf("key 1 still present after delete")
			}
		}
	}
}

func TestNprobeClampedToNList(t *testing.T) {
	idx := gridIndex(t)
	it := NewIterator(idx, []float32{0, 0}, 100)
	if it.nprobe != idx.NList() {
		t.Fatalf("nprobe = %d, want clamp to %d", it.nprobe, idx.NList())
	}
}

func TestSeekWalksCandidatesAscending(t *testing.T) {
	idx := gridIndex(t)
	it := NewIterator(idx, []float32{0, 0}, 4)

	var keys []uint64
	var lastDist float32 = -1
	lastCluster := -1
	for it.Seek(); it.Valid(); it.Next() {
		// Order is only promised within a cluster, so restart the
		// comparison whenever the iterator moves to the next one.
		if it.cur != lastCluster {
			lastCluster, lastDist = it.cur, -1
		}
		d := distL2(it.Vector(), []float32{0, 0})
		if lastDist >= 0 && d < lastDist {
			t.Fatalf("distances not ascending within cluster: %v after %v", d, lastDist)
		}
		lastDist = d
		keys = append(keys, it.Key())
	}
	if len(keys) != 5 {
		t.Fatalf("visited %d candidates, want 5", len(keys))
	}
}

func TestSeekClusterCoversAllProbedClusters(t *testing.T) {
	idx := gridIndex(t)
	it := NewIterator(idx, []float32{0, 0}, 4)

	total := 0
	for it.SeekCluster(); it.HasNextCluster(); it.NextCluster() {
		total += len(it.GetCluster())
	}
	if total != 5 {
		t.Fatalf("cluster mode visited %d entries total, want 5", total)
	}
}

func distL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
