// Package merkle implements the admission commitment scheme: a wallet's
// allocation (account, pool, amount) is a leaf of a BLAKE2b merkle tree
// whose root is the single published commitment. Branch nodes hash their
// children in lexicographic order, so proofs carry no direction bits.
package merkle

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const HashSize = 32

type Hash [HashSize]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func HashFromString(str string) (Hash, error) {
	data, err := hex.DecodeString(str)
	if err != nil {
		return Hash{}, err
	}
	if len(data) != HashSize {
		return Hash{}, fmt.Errorf("hash should be %d bytes, but it is %d bytes", HashSize, len(data))
	}
	var h Hash
	copy(h[:], data)
	return h, nil
}

// Leaf binds one allocation tuple.
func Leaf(account string, poolId int64, amountNano int64) Hash {
	buf := make([]byte, 0, len(account)+16)
	buf = append(buf, []byte(account)...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(poolId))
	buf = binary.BigEndian.AppendUint64(buf, uint64(amountNano))
	return blake2b.Sum256(buf)
}

func hashPair(a, b Hash) Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	buf := make([]byte, 0, 2*HashSize)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return blake2b.Sum256(buf)
}

// VerifyProof reconstructs the path from leaf to root.
func VerifyProof(root, leaf Hash, proof []Hash) bool {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// Tree is built from the full allocation set; it exists for the off-chain
// set generator and for tests. The engine itself only verifies proofs.
type Tree struct {
	levels [][]Hash
}

func NewTree(leaves []Hash) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}
	levels := [][]Hash{append([]Hash(nil), leaves...)}
	for level := levels[0]; len(level) > 1; {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// odd node is carried up unchanged
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}
}

func (t *Tree) Root() Hash {
	if len(t.levels) == 0 {
		return Hash{}
	}
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the sibling path for the leaf at the given index.
func (t *Tree) Proof(index int) ([]Hash, error) {
	if len(t.levels) == 0 || index < 0 || index >= len(t.levels[0]) {
		return nil, fmt.Errorf("leaf index %d out of range", index)
	}
	var proof []Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}
