package storage

import (
	"fmt"

	"github.com/ivfdb/ivfdb/internal/codec"
	"github.com/ivfdb/ivfdb/internal/ivfflat"
)

// indexPartition is the on-disk shape of one slice of an index's
// centroids and posting lists.
type indexPartition struct {
	Field     string            `json:"field"`
	Dim       int               `json:"dim"`
	NList     int               `json:"nlist"`
	Offset    int               `json:"offset"`
	Centroids [][]float32       `json:"centroids"`
	Lists     [][]ivfflat.Entry `json:"lists"`
}

const baseDim = 128
const centroidsPerPartition = 1000

// partitionCount returns the number of partitions an index with nlist
// centroids of dimension dim is split into on write.
func partitionCount(nlist, dim int) int {
	n := ceilDiv(nlist*dim, baseDim)
	return ceilDiv(n, centroidsPerPartition)
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// PutIndex persists field's index, partitioned per the write-path
// partitioning rule: n_partitions = ceil((nlist*dim/128)/1000),
// partition size floor(nlist/n_partitions) with the remainder appended
// to the last partition.
func (a *Adapter) PutIndex(field string, dim int, centroids [][]float32, lists [][]ivfflat.Entry) error {
	nlist := len(centroids)
	nPartitions := partitionCount(nlist, dim)
	if nPartitions < 1 {
		nPartitions = 1
	}
	partSize := nlist / nPartitions

	offset := 0
	for p := 0; p < nPartitions; p++ {
		size := partSize
		if p == nPartitions-1 {
			size = nlist - offset
		}
		part := indexPartition{
			Field:     field,
			Dim:       dim,
			NList:     nlist,
			Offset:    offset,
			Centroids: centroids[offset : offset+size],
			Lists:     lists[offset : offset+size],
		}
		payload, err := codec.Default.Marshal(part)
		if err != nil {
			return fmt.Errorf("storage: encode index partition %d for %q: %w", p, field, err)
		}
		key := fmt.Sprintf("%s%s:%d", indexPrefix, field, p)
		if err := a.store.Put([]byte(key), codec.EncodeFrame(codec.KindIndexPartition, payload)); err != nil {
			return fmt.Errorf("storage: write index partition %d for %q: %w", p, field, err)
		}
		offset += size
	}
	return nil
}

// GetIndex loads and merges every partition of field's index, returning
// the full centroid set and posting lists in original order.
func (a *Adapter) GetIndex(field string) (dim int, centroids [][]float32, lists [][]ivfflat.Entry, err error) {
	prefix := fmt.Sprintf("%s%s:", indexPrefix, field)
	it, err := a.store.NewIterator([]byte(prefix))
	if err != nil {
		return 0, nil, nil, err
	}
	defer it.Close()

	parts := make(map[int]indexPartition)
	nlist := 0
	for it.Next() {
		_, payload, err := codec.DecodeFrame(it.Value())
		if err != nil {
			return 0, nil, nil, err
		}
		var part indexPartition
		if err := codec.Default.Unmarshal(payload, &part); err != nil {
			return 0, nil, nil, err
		}
		parts[part.Offset] = part
		nlist = part.NList
		dim = part.Dim
	}
	if len(parts) == 0 {
		return 0, nil, nil, fmt.Errorf("storage: no index partitions for field %q", field)
	}

	centroids = make([][]float32, nlist)
	lists = make([][]ivfflat.Entry, nlist)
	for _, part := range parts {
		for i := range part.Centroids {
			centroids[part.Offset+i] = part.Centroids[i]
			lists[part.Offset+i] = part.Lists[i]
		}
	}
	return dim, centroids, lists, nil
}
