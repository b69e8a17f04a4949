package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// BlockComparator compares files in fixed-size blocks.
// It stops at the first mismatching block and never reports an offset.
type BlockComparator struct {
	blockSize      int
	bufferPool     *sync.Pool
	blocksCompared atomic.Int64
}

// NewBlockComparator creates a new block comparator
func NewBlockComparator(blockSize int) *BlockComparator {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	return &BlockComparator{
		blockSize: blockSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, blockSize)
				return &buf
			},
		},
	}
}

// BlockSize returns the configured block size
func (c *BlockComparator) BlockSize() int {
	return c.blockSize
}

// BlocksCompared returns how many block pairs were read and compared so far
func (c *BlockComparator) BlocksCompared() int64 {
	return c.blocksCompared.Load()
}

// Compare compares two files block by block
func (c *BlockComparator) Compare(ctx context.Context, pathA, pathB string) (*Comparison, error) {
	infoA, err := os.Stat(pathA)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", pathA, err)
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", pathB, err)
	}

	cmp := &Comparison{
		PathA: pathA,
		PathB: pathB,
		SizeA: infoA.Size(),
		SizeB: infoB.Size(),
	}

	// Quick check: if sizes differ, contents are never read
	if cmp.SizeA != cmp.SizeB {
		cmp.Result = DifferentSize
		cmp.Reason = fmt.Sprintf("size mismatch: %d != %d", cmp.SizeA, cmp.SizeB)
		return cmp, nil
	}

	fileA, err := os.Open(pathA)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", pathA, err)
	}
	defer fileA.Close()

	fileB, err := os.Open(pathB)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", pathB, err)
	}
	defer fileB.Close()

	same, err := c.compareStreams(ctx, fileA, fileB)
	if err != nil {
		return nil, err
	}
	if same {
		cmp.Result = Same
		cmp.Reason = fmt.Sprintf("contents match (%d bytes)", cmp.SizeA)
	} else {
		cmp.Result = Different
		cmp.Reason = "contents differ"
	}
	return cmp, nil
}

func (c *BlockComparator) compareStreams(ctx context.Context, a, b io.Reader) (bool, error) {
	bufAPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufAPtr)
	bufA := *bufAPtr

	bufBPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufBPtr)
	bufB := *bufBPtr

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		nA, errA := io.ReadFull(a, bufA)
		nB, errB := io.ReadFull(b, bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("failed to read block: %w", errA)
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("failed to read block: %w", errB)
		}

		if nA == 0 && nB == 0 {
			return true, nil
		}
		c.blocksCompared.Add(1)

		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}

		// A short block means both streams ended
		if nA < len(bufA) {
			return true, nil
		}
	}
}
