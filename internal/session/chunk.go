package session

// MaxBatchSize is the largest number of items a single playlist mutation
// request may carry.
const MaxBatchSize = 75

// Chunk splits ids into consecutive batches of at most size elements,
// preserving order within and across batches. A size of zero or less falls
// back to [MaxBatchSize]. The returned slices alias the input.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}

	if len(ids) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	return batches
}
