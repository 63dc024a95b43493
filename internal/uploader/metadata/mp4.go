package metadata

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidContainer indicates the file is not a valid MP4-family container.
var ErrInvalidContainer = errors.New("invalid MP4 container")

// mp4Duration walks the ISO base media box structure to the moov/mvhd box
// and derives the presentation duration in seconds. M4B and M4A audiobooks
// share this layout with MP4.
func mp4Duration(r io.ReadSeeker) (int64, error) {
	var foundFtyp bool

	for {
		payload, boxType, toEOF, err := readBoxHeader(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		switch boxType {
		case "ftyp":
			foundFtyp = true
			if toEOF {
				return 0, ErrInvalidContainer
			}
			if _, err := r.Seek(payload, io.SeekCurrent); err != nil {
				return 0, err
			}
		case "moov":
			if !foundFtyp {
				return 0, ErrInvalidContainer
			}
			if toEOF {
				payload, err = remainingBytes(r)
				if err != nil {
					return 0, err
				}
			}
			return parseMoov(r, payload)
		default:
			if toEOF {
				// Nothing can follow a box that runs to end of file.
				return 0, ErrInvalidContainer
			}
			if _, err := r.Seek(payload, io.SeekCurrent); err != nil {
				return 0, err
			}
		}
	}

	return 0, ErrInvalidContainer
}

// readBoxHeader returns the payload length after the header and the box type.
// A size field of 1 means a 64-bit largesize follows the type; mdat in files
// near the 4GB document cap uses it. A size field of 0 means the box extends
// to end of file, reported via toEOF.
func readBoxHeader(r io.Reader) (payload int64, boxType string, toEOF bool, err error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, "", false, io.EOF
		}
		return 0, "", false, err
	}

	size := uint64(binary.BigEndian.Uint32(header[0:4]))
	boxType = string(header[4:8])
	headerLen := uint64(8)

	switch size {
	case 0:
		return 0, boxType, true, nil
	case 1:
		var large [8]byte
		if _, err := io.ReadFull(r, large[:]); err != nil {
			return 0, "", false, err
		}
		size = binary.BigEndian.Uint64(large[:])
		headerLen = 16
	}

	if size < headerLen {
		return 0, "", false, ErrInvalidContainer
	}
	return int64(size - headerLen), boxType, false, nil
}

// remainingBytes returns the byte count from the current position to end of
// file, restoring the position.
func remainingBytes(r io.ReadSeeker) (int64, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return end - pos, nil
}

// parseMoov scans the children of the movie box for the movie header.
func parseMoov(r io.ReadSeeker, remaining int64) (int64, error) {
	end, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end += remaining

	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		if pos >= end {
			break
		}

		payload, boxType, toEOF, err := readBoxHeader(r)
		if err != nil {
			return 0, err
		}

		if boxType == "mvhd" {
			return parseMvhd(r)
		}
		if toEOF {
			// The last child swallows the rest of the movie box.
			break
		}
		if _, err := r.Seek(payload, io.SeekCurrent); err != nil {
			return 0, err
		}
	}

	return 0, ErrInvalidContainer
}

// parseMvhd reads the timescale and duration out of the movie header.
// Version 1 headers use 64-bit times; long audiobooks with high timescales
// overflow the 32-bit version 0 fields, so both must be handled.
func parseMvhd(r io.Reader) (int64, error) {
	var versionFlags [4]byte
	if _, err := io.ReadFull(r, versionFlags[:]); err != nil {
		return 0, err
	}

	var timescale uint32
	var duration uint64

	if versionFlags[0] == 1 {
		// creation(8) + modification(8) + timescale(4) + duration(8)
		var buf [28]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[16:20])
		duration = binary.BigEndian.Uint64(buf[20:28])
	} else {
		// creation(4) + modification(4) + timescale(4) + duration(4)
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[8:12])
		duration = uint64(binary.BigEndian.Uint32(buf[12:16]))
	}

	if timescale == 0 {
		return 0, ErrInvalidContainer
	}
	return int64(duration / uint64(timescale)), nil
}
