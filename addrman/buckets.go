package addrman

// bucketMatrix holds the two fixed-size slot matrices: NEW
// (NewBucketCount x BucketSize) and TRIED (TriedBucketCount x
// BucketSize). Empty slots hold noEntry.
type bucketMatrix struct {
	newSlots   [][]entryID
	triedSlots [][]entryID
}

func newBucketMatrix() *bucketMatrix {
	m := &bucketMatrix{
		newSlots:   make([][]entryID, NewBucketCount),
		triedSlots: make([][]entryID, TriedBucketCount),
	}
	for i := range m.newSlots {
		m.newSlots[i] = newEmptyRow()
	}
	for i := range m.triedSlots {
		m.triedSlots[i] = newEmptyRow()
	}
	return m
}

func newEmptyRow() []entryID {
	row := make([]entryID, BucketSize)
	for i := range row {
		row[i] = noEntry
	}
	return row
}

func (m *bucketMatrix) getNew(bucket, pos uint32) entryID   { return m.newSlots[bucket][pos] }
func (m *bucketMatrix) setNew(bucket, pos uint32, id entryID) { m.newSlots[bucket][pos] = id }

func (m *bucketMatrix) getTried(bucket, pos uint32) entryID { return m.triedSlots[bucket][pos] }
func (m *bucketMatrix) setTried(bucket, pos uint32, id entryID) {
	m.triedSlots[bucket][pos] = id
}
