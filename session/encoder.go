package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	dataFormatVersionCurrent = 1

	maxSessionIDLen   = 255
	maxFingerprintLen = 4096
)

// Encode serializes d as:
//
//	version(1) sidLen(1) sid refreshHash(32) fpLen(2) fp createdAt(8) expiresAt(8)
//
// All integers are big-endian. The session ID sits at a fixed offset so the
// rotation script can read it without a full decode.
func Encode(d Data) ([]byte, error) {
	if len(d.SessionID) == 0 || len(d.SessionID) > maxSessionIDLen {
		return nil, errors.New("sessionID length out of range")
	}
	if len(d.Fingerprint) > maxFingerprintLen {
		return nil, errors.New("fingerprint too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(d.SessionID) + 32 + 2 + len(d.Fingerprint) + 16)

	buf.WriteByte(dataFormatVersionCurrent)
	buf.WriteByte(byte(len(d.SessionID)))
	buf.WriteString(d.SessionID)
	buf.Write(d.RefreshHash[:])

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(d.Fingerprint))); err != nil {
		return nil, err
	}
	buf.WriteString(d.Fingerprint)

	if err := binary.Write(&buf, binary.BigEndian, d.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, d.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (Data, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Data{}, corrupt(err)
	}
	if version != dataFormatVersionCurrent {
		return Data{}, fmt.Errorf("%w: unknown version %d", ErrCorruptSession, version)
	}

	var d Data

	sidLen, err := reader.ReadByte()
	if err != nil {
		return Data{}, corrupt(err)
	}
	if sidLen == 0 {
		return Data{}, fmt.Errorf("%w: empty session id", ErrCorruptSession)
	}
	sid := make([]byte, sidLen)
	if _, err := io.ReadFull(reader, sid); err != nil {
		return Data{}, corrupt(err)
	}
	d.SessionID = string(sid)

	if _, err := io.ReadFull(reader, d.RefreshHash[:]); err != nil {
		return Data{}, corrupt(err)
	}

	var fpLen uint16
	if err := binary.Read(reader, binary.BigEndian, &fpLen); err != nil {
		return Data{}, corrupt(err)
	}
	if int(fpLen) > maxFingerprintLen {
		return Data{}, fmt.Errorf("%w: fingerprint too long", ErrCorruptSession)
	}
	fp := make([]byte, fpLen)
	if _, err := io.ReadFull(reader, fp); err != nil {
		return Data{}, corrupt(err)
	}
	d.Fingerprint = string(fp)

	if err := binary.Read(reader, binary.BigEndian, &d.CreatedAt); err != nil {
		return Data{}, corrupt(err)
	}
	if err := binary.Read(reader, binary.BigEndian, &d.ExpiresAt); err != nil {
		return Data{}, corrupt(err)
	}
	if reader.Len() != 0 {
		return Data{}, fmt.Errorf("%w: trailing bytes", ErrCorruptSession)
	}

	return d, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptSession, err)
}
