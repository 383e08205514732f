package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire format: a length-prefixed binary encoding of the tagged
// operation list. Unlike ToJSON/FromJSON (which target ot.js-compatible
// JSON for interop with the algebra's JS ancestry), this is the
// deterministic binary form the revision log and the RPC layer persist
// and transmit, so that byte-identical change sets compare equal across
// peers in tests (this matters for transformed-change-set identity
// checks).
//
// Layout, all integers little-endian:
//
//	uint32      op count
//	repeated:
//	  byte      tag (0=Retain, 1=Delete, 2=Insert)
//	  Retain:   uint64 n
//	  Delete:   uint64 n
//	  Insert:   uint32 byte length, then that many UTF-8 bytes
const (
	wireTagRetain byte = 0
	wireTagDelete byte = 1
	wireTagInsert byte = 2
)

// Encode serializes op to the wire format.
func (op *Operation) Encode() []byte {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(op.ops)))
	buf.Write(hdr[:])

	for _, o := range op.ops {
		switch v := o.(type) {
		case RetainOp:
			buf.WriteByte(wireTagRetain)
			writeUint64(&buf, uint64(v))
		case DeleteOp:
			buf.WriteByte(wireTagDelete)
			writeUint64(&buf, uint64(v.Length()))
		case InsertOp:
			buf.WriteByte(wireTagInsert)
			s := string(v)
			var lenBuf [4]byte
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
			buf.Write(lenBuf[:])
			buf.WriteString(s)
		}
	}
	return buf.Bytes()
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// Decode parses the wire format produced by Encode, rebuilding a change
// set through Builder so the result is canonical even if the encoded
// sequence was not (defensive against a corrupted or hand-written wire
// payload).
func Decode(data []byte) (*Operation, error) {
	r := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading op count: %v", ErrInvalidInput, err)
	}

	b := NewBuilder()
	for i := uint32(0); i < count; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading op tag: %v", ErrInvalidInput, err)
		}
		switch tag {
		case wireTagRetain:
			n, err := readUint64(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading retain length: %v", ErrInvalidInput, err)
			}
			b.Retain(int(n))
		case wireTagDelete:
			n, err := readUint64(r)
			if err != nil {
				return nil, fmt.Errorf("%w: reading delete length: %v", ErrInvalidInput, err)
			}
			b.Delete(int(n))
		case wireTagInsert:
			var strLen uint32
			if err := binary.Read(r, binary.LittleEndian, &strLen); err != nil {
				return nil, fmt.Errorf("%w: reading insert length: %v", ErrInvalidInput, err)
			}
			strBytes := make([]byte, strLen)
			if _, err := io.ReadFull(r, strBytes); err != nil {
				return nil, fmt.Errorf("%w: reading insert payload: %v", ErrInvalidInput, err)
			}
			b.Insert(string(strBytes))
		default:
			return nil, fmt.Errorf("%w: unknown op tag %d", ErrInvalidInput, tag)
		}
	}
	return b.Build(), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
