package render

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/jsphweid/songreplay/constants"
	"github.com/pkg/errors"
)

const wavHeaderSize = 44

func putSample(b []byte, v float32) {
	binary.LittleEndian.PutUint16(b, uint16(int16(v*32767)))
}

// WriteWAV writes pcm, 16-bit stereo at the render sample rate, as a WAV
// stream.
func WriteWAV(w io.Writer, pcm []byte) error {
	dataLen := uint32(len(pcm))
	var header [wavHeaderSize]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36+dataLen)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], 2)
	binary.LittleEndian.PutUint32(header[24:], uint32(constants.SampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(constants.SampleRate*4))
	binary.LittleEndian.PutUint16(header[32:], 4)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "could not write wav header")
	}
	if _, err := w.Write(pcm); err != nil {
		return errors.Wrap(err, "could not write wav data")
	}
	return nil
}

// WriteWAVFile writes pcm to path and returns the file size.
func WriteWAVFile(path string, pcm []byte) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "could not create wav file")
	}
	defer f.Close()
	if err := WriteWAV(f, pcm); err != nil {
		return 0, err
	}
	return int64(wavHeaderSize + len(pcm)), nil
}
