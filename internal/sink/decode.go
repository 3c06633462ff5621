package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
)

// flacMagic is the 4-byte "fLaC" stream marker FLAC always opens with,
// once any leading ID3v2 tag is skipped.
const flacMagic = "fLaC"

// decodedTrack is a fully opened source ready to be handed to the
// output stream.
type decodedTrack struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (t *decodedTrack) Close() error {
	if t == nil {
		return nil
	}
	var err error
	if t.streamer != nil {
		err = t.streamer.Close()
	}
	if t.file != nil {
		if cerr := t.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// decodeFunc opens path and returns its decoded source. Qobuz serves
// only MP3 and FLAC, so the set of containers sniffed for is
// deliberately narrow.
type decodeFunc func(path string) (*decodedTrack, error)

// decodeFile sniffs path's container instead of trusting its name: the
// cache on disk is keyed by track id, not by format, so there is no
// extension to switch on in the first place.
func decodeFile(path string) (*decodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if err := skipID3v2(f); err != nil {
		f.Close()
		return nil, err
	}

	magic := make([]byte, len(flacMagic))
	n, err := io.ReadFull(f, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(-int64(n), io.SeekCurrent); err != nil {
		f.Close()
		return nil, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	if n == len(flacMagic) && string(magic) == flacMagic {
		streamer, format, err = flac.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	return &decodedTrack{file: f, streamer: streamer, format: format}, nil
}

// skipID3v2 skips an ID3v2 tag prepended to a file, which some taggers
// attach even to FLAC files and the FLAC decoder can't handle.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	if string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
