package addrman

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// serialize writes the manager's state as human-readable, LF-terminated
// text, per spec.md §4.8. The on-disk form is line-oriented rather than
// binary so it is trivial to diff and hand-inspect; see DESIGN.md for
// why no third-party (JSON/CBOR) serializer from the pack is used.
func (c *core) serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)

	keyInt := new(big.Int).SetBytes(c.key[:])
	if err := writeLine(bw, keyInt.String()); err != nil {
		return err
	}

	newIDs := make([]entryID, 0, c.newCount)
	triedIDs := make([]entryID, 0, c.triedCount)
	newIndex := make(map[entryID]int, c.newCount)
	for _, id := range c.randomOrder {
		e := c.entries[id]
		if e.isTried {
			triedIDs = append(triedIDs, id)
		} else {
			newIndex[id] = len(newIDs)
			newIDs = append(newIDs, id)
		}
	}

	if err := writeLine(bw, strconv.Itoa(len(newIDs))); err != nil {
		return err
	}
	if err := writeLine(bw, strconv.Itoa(len(triedIDs))); err != nil {
		return err
	}
	if err := writeLine(bw, strconv.Itoa(NewBucketCount)); err != nil {
		return err
	}

	for _, id := range newIDs {
		if err := writeLine(bw, entryLine(c.entries[id])); err != nil {
			return err
		}
	}
	for _, id := range triedIDs {
		if err := writeLine(bw, entryLine(c.entries[id])); err != nil {
			return err
		}
	}

	for bucket := uint32(0); bucket < NewBucketCount; bucket++ {
		occupants := make([]int, 0)
		for pos := uint32(0); pos < BucketSize; pos++ {
			id := c.buckets.getNew(bucket, pos)
			if id == noEntry {
				continue
			}
			if idx, ok := newIndex[id]; ok {
				occupants = append(occupants, idx)
			}
		}
		if err := writeLine(bw, strconv.Itoa(len(occupants))); err != nil {
			return err
		}
		for _, idx := range occupants {
			if err := writeLine(bw, strconv.Itoa(idx)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func writeLine(w *bufio.Writer, s string) error {
	_, err := w.WriteString(s + "\n")
	return err
}

// entryLine is the corrected ExtendedPeerInfo.to_string from spec.md
// §9: the original's version is syntactically broken (missing `+`
// operators between concatenated fields).
func entryLine(e *Entry) string {
	return fmt.Sprintf("%s %d %s %d", e.Peer.Host, e.Peer.Port, e.Src.Host, e.Src.Port)
}

func parseEntryLine(line string) (peer, src Endpoint, err error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Endpoint{}, Endpoint{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrCorruptState, len(fields))
	}
	port, err1 := strconv.ParseUint(fields[1], 10, 16)
	srcPort, err2 := strconv.ParseUint(fields[3], 10, 16)
	if err1 != nil || err2 != nil {
		return Endpoint{}, Endpoint{}, fmt.Errorf("%w: invalid port in %q", ErrCorruptState, line)
	}
	peer = Endpoint{Host: fields[0], Port: uint16(port), Timestamp: epochZero}
	src = Endpoint{Host: fields[2], Port: uint16(srcPort), Timestamp: epochZero}
	return peer, src, nil
}

// unserializeFrom parses a persisted manager into a fresh scratch
// core, leaving c untouched; the caller (Manager.Unserialize) only
// swaps it in on complete success, per spec.md §7's "manager must
// remain unmodified" requirement for corrupt input.
func (c *core) unserializeFrom(r io.Reader) (*core, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	readLine := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("%w: %v", ErrCorruptState, err)
			}
			return "", fmt.Errorf("%w: unexpected end of file", ErrCorruptState)
		}
		return sc.Text(), nil
	}
	readInt := func() (int, error) {
		line, err := readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		return n, nil
	}

	keyLine, err := readLine()
	if err != nil {
		return nil, err
	}
	keyInt, ok := new(big.Int).SetString(strings.TrimSpace(keyLine), 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid key", ErrCorruptState)
	}
	var key [32]byte
	keyInt.FillBytes(key[:])

	newCount, err := readInt()
	if err != nil {
		return nil, err
	}
	triedCount, err := readInt()
	if err != nil {
		return nil, err
	}
	bucketCount, err := readInt()
	if err != nil {
		return nil, err
	}
	if bucketCount != NewBucketCount {
		return nil, ErrBucketCountMismatch
	}
	if newCount < 0 || newCount > NewBucketCount*BucketSize {
		return nil, fmt.Errorf("%w: new_count out of range", ErrCorruptState)
	}
	if triedCount < 0 || triedCount > TriedBucketCount*BucketSize {
		return nil, fmt.Errorf("%w: tried_count out of range", ErrCorruptState)
	}

	scratch := &core{
		key:       key,
		buckets:   newBucketMatrix(),
		entries:   make(map[entryID]*Entry, newCount+triedCount),
		hostIndex: make(map[string]entryID, newCount+triedCount),
		lastGood:  time.Unix(1, 0),
		clock:     c.clock,
		rnd:       c.rnd,
	}

	for n := 0; n < newCount; n++ {
		line, err := readLine()
		if err != nil {
			return nil, err
		}
		peer, src, err := parseEntryLine(line)
		if err != nil {
			return nil, err
		}
		id := entryID(n)
		e := &Entry{Peer: peer, Src: src, time: epochZero}
		scratch.entries[id] = e
		scratch.hostIndex[peer.Host] = id
		e.randomPos = len(scratch.randomOrder)
		scratch.randomOrder = append(scratch.randomOrder, id)
	}
	scratch.newCount = newCount

	idCounter := int64(newCount)
	lostTried := 0
	for n := 0; n < triedCount; n++ {
		line, err := readLine()
		if err != nil {
			return nil, err
		}
		peer, src, err := parseEntryLine(line)
		if err != nil {
			return nil, err
		}
		e := &Entry{Peer: peer, Src: src, time: epochZero}
		tb := triedBucket(scratch.key, peer)
		tp := bucketPos(scratch.key, false, tb, peer)
		if scratch.buckets.getTried(tb, tp) != noEntry {
			lostTried++
			continue
		}
		id := entryID(idCounter)
		idCounter++
		e.isTried = true
		e.randomPos = len(scratch.randomOrder)
		scratch.randomOrder = append(scratch.randomOrder, id)
		scratch.entries[id] = e
		scratch.hostIndex[peer.Host] = id
		scratch.buckets.setTried(tb, tp, id)
	}
	scratch.triedCount = triedCount - lostTried
	scratch.idCounter = idCounter

	for bucket := 0; bucket < NewBucketCount; bucket++ {
		bucketSize, err := readInt()
		if err != nil {
			return nil, err
		}
		for n := 0; n < bucketSize; n++ {
			index, err := readInt()
			if err != nil {
				return nil, err
			}
			if index < 0 || index >= newCount {
				continue
			}
			id := entryID(index)
			e, ok := scratch.entries[id]
			if !ok {
				continue
			}
			pos := bucketPos(scratch.key, true, uint32(bucket), e.Peer)
			if scratch.buckets.getNew(uint32(bucket), pos) == noEntry && e.refCount < NewBucketsPerAddress {
				e.refCount++
				scratch.buckets.setNew(uint32(bucket), pos, id)
			}
		}
	}

	for _, id := range append([]entryID(nil), scratch.randomOrder...) {
		e, ok := scratch.entries[id]
		if ok && !e.isTried && e.refCount == 0 {
			scratch.deleteNewEntry(id)
		}
	}

	return scratch, nil
}
