// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-romprops.
//
// go-romprops is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-romprops is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-romprops.  If not, see <https://www.gnu.org/licenses/>.

package chd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// CHD audio is always 44.1 kHz 16-bit stereo.
const (
	flacSampleRate = 44100
	flacChannels   = 2
	flacBits       = 16
)

// flacCodec decodes "flac" hunks: one byte naming the sample byte order
// ('L' or 'B') followed by FLAC frames without a stream header.
type flacCodec struct{}

func (flacCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: flac: empty source", ErrDecompressFailed)
	}
	var order binary.ByteOrder
	switch src[0] {
	case 'L':
		order = binary.LittleEndian
	case 'B':
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("%w: flac: unknown byte order %q", ErrDecompressFailed, src[0])
	}

	stream, _, err := openFrames(src[1:], flacBlockSize(len(dst), 2048))
	if err != nil {
		return 0, err
	}
	defer func() { _ = stream.Close() }()
	return decodeSamples(stream, dst, order)
}

// cdFLACCodec decodes "cdfl" hunks: big-endian FLAC audio for every frame's
// sector data, then a deflate stream of subchannel data.
type cdFLACCodec struct{}

func (c cdFLACCodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/defaultUnitBytes)
}

// DecompressCD zero-fills the audio when the frames cannot be decoded. Audio
// content is never inspected, so a bad audio hunk must not fail the image.
func (cdFLACCodec) DecompressCD(dst, src []byte, _, frames int) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: cdfl: empty source", ErrDecompressFailed)
	}

	sectors := make([]byte, frames*cdSectorSize)
	used := len(src)
	if stream, counter, err := openFrames(src, flacBlockSize(len(sectors), cdSectorSize)); err == nil {
		if _, err := decodeSamples(stream, sectors, binary.BigEndian); err != nil {
			clear(sectors)
		} else {
			used = min(counter.n, len(src))
		}
		_ = stream.Close()
	}

	subchannel := inflateSubchannel(src[used:], frames*cdSubSize)
	return interleaveCDData(dst, sectors, subchannel, frames), nil
}

// flacBlockSize is a quarter of the output size halved until it fits limit.
func flacBlockSize(size, limit int) uint16 {
	bs := size / 4
	for bs > limit {
		bs /= 2
	}
	return uint16(bs) //nolint:gosec // Bounded by limit
}

// byteCounter counts the payload bytes handed to the decoder.
type byteCounter struct {
	r io.Reader
	n int
}

func (c *byteCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// openFrames puts a synthetic stream header in front of bare FLAC frames.
func openFrames(frames []byte, blockSize uint16) (*flac.Stream, *byteCounter, error) {
	counter := &byteCounter{r: bytes.NewReader(frames)}
	stream, err := flac.New(io.MultiReader(bytes.NewReader(streamHeader(blockSize)), counter))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: flac header: %w", ErrDecompressFailed, err)
	}
	return stream, counter, nil
}

// streamHeader returns "fLaC" and a lone STREAMINFO block with an unknown
// sample count.
func streamHeader(blockSize uint16) []byte {
	h := make([]byte, 4+4+34)
	copy(h, "fLaC")
	h[4] = 0x80 // last block, type STREAMINFO
	h[7] = 34
	binary.BigEndian.PutUint16(h[8:], blockSize)
	binary.BigEndian.PutUint16(h[10:], blockSize)
	// 20-bit rate, 3-bit channels-1, 5-bit bits-1, top of 36-bit sample count
	binary.BigEndian.PutUint32(h[18:], flacSampleRate<<12|(flacChannels-1)<<9|(flacBits-1)<<4)
	return h
}

// decodeSamples writes interleaved 16-bit samples into dst until either the
// stream or dst runs out.
func decodeSamples(stream *flac.Stream, dst []byte, order binary.ByteOrder) (int, error) {
	n := 0
	for n < len(dst) {
		fr, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("%w: flac frame: %w", ErrDecompressFailed, err)
		}
		if len(fr.Subframes) == 0 {
			continue
		}
		chans := fr.Subframes[:min(len(fr.Subframes), flacChannels)]
		for i := 0; i < chans[0].NSamples && n+2*len(chans) <= len(dst); i++ {
			for _, sf := range chans {
				order.PutUint16(dst[n:], uint16(int16(sf.Samples[i]))) //nolint:gosec // 16-bit samples
				n += 2
			}
		}
	}
	return n, nil
}
