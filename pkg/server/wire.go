package server

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// encodeRevisions writes a length-prefixed list of RevisionDTOs, reusing
// the same little-endian, length-prefixed-binary shape pkg/ot's wire
// codec uses for change sets. The encoding is deterministic, so
// identical responses are byte-identical across peers.
func encodeRevisions(buf *bytes.Buffer, revs []RevisionDTO) {
	writeUint32(buf, uint32(len(revs)))
	for _, r := range revs {
		writeUint64(buf, uint64(r.Number))
		writeUint64(buf, uint64(r.CommittedAt))
		writeUint32(buf, uint32(len(r.ChangeSet)))
		buf.Write(r.ChangeSet)
	}
}

func decodeRevisions(r *bytes.Reader) ([]RevisionDTO, error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading revision count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	revs := make([]RevisionDTO, 0, count)
	for i := uint32(0); i < count; i++ {
		number, err := readUint64(r)
		if err != nil {
			return nil, fmt.Errorf("reading revision number: %w", err)
		}
		committedAt, err := readUint64(r)
		if err != nil {
			return nil, fmt.Errorf("reading committed_at: %w", err)
		}
		csLen, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading change set length: %w", err)
		}
		cs := make([]byte, csLen)
		if _, err := io.ReadFull(r, cs); err != nil {
			return nil, fmt.Errorf("reading change set: %w", err)
		}
		revs = append(revs, RevisionDTO{Number: int64(number), CommittedAt: int64(committedAt), ChangeSet: cs})
	}
	return revs, nil
}

// EncodeSubmitResponse serializes a SubmitDocumentChangeSetResponse to
// the binary wire format used over HTTP.
func EncodeSubmitResponse(resp SubmitDocumentChangeSetResponse) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(resp.ResponseCode))
	writeUint64(&buf, uint64(resp.LastRevisionNumber))
	writeBool(&buf, resp.EndOfRevisions)
	encodeRevisions(&buf, resp.Revisions)
	return buf.Bytes()
}

// DecodeSubmitResponse parses the bytes EncodeSubmitResponse produces.
func DecodeSubmitResponse(data []byte) (SubmitDocumentChangeSetResponse, error) {
	r := bytes.NewReader(data)
	codeByte, err := r.ReadByte()
	if err != nil {
		return SubmitDocumentChangeSetResponse{}, err
	}
	last, err := readUint64(r)
	if err != nil {
		return SubmitDocumentChangeSetResponse{}, err
	}
	end, err := readBool(r)
	if err != nil {
		return SubmitDocumentChangeSetResponse{}, err
	}
	revs, err := decodeRevisions(r)
	if err != nil {
		return SubmitDocumentChangeSetResponse{}, err
	}
	return SubmitDocumentChangeSetResponse{
		ResponseCode:       ResponseCode(codeByte),
		LastRevisionNumber: int64(last),
		EndOfRevisions:     end,
		Revisions:          revs,
	}, nil
}

// EncodeGetRevisionsResponse serializes a GetDocumentRevisionsResponse.
func EncodeGetRevisionsResponse(resp GetDocumentRevisionsResponse) []byte {
	var buf bytes.Buffer
	writeUint64(&buf, uint64(resp.LastRevisionNumber))
	writeBool(&buf, resp.EndOfRevisions)
	encodeRevisions(&buf, resp.Revisions)
	return buf.Bytes()
}

// DecodeGetRevisionsResponse parses the bytes EncodeGetRevisionsResponse
// produces.
func DecodeGetRevisionsResponse(data []byte) (GetDocumentRevisionsResponse, error) {
	r := bytes.NewReader(data)
	last, err := readUint64(r)
	if err != nil {
		return GetDocumentRevisionsResponse{}, err
	}
	end, err := readBool(r)
	if err != nil {
		return GetDocumentRevisionsResponse{}, err
	}
	revs, err := decodeRevisions(r)
	if err != nil {
		return GetDocumentRevisionsResponse{}, err
	}
	return GetDocumentRevisionsResponse{LastRevisionNumber: int64(last), EndOfRevisions: end, Revisions: revs}, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}
