// Package zipstream produces uncompressed ZIP archives whose exact size is
// known before the first byte is written.
//
// Every entry is stored (method 0) with a trailing data descriptor, so the
// layout depends only on entry names and sizes: the CRC-32 of each file is
// computed while it streams and written after its data. That makes the total
// length a closed formula over the entry list, which is what lets an HTTP
// handler send Content-Length up front and then stream the body lazily,
// opening one file at a time.
//
// ZIP64 is not produced; archives are limited to fewer than 65535 entries
// and 4 GiB in total.
package zipstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"iter"
	"math"
	"time"
)

const (
	localHeaderLen   = 30
	descriptorLen    = 16
	centralHeaderLen = 46
	endRecordLen     = 22

	sigLocalHeader   = 0x04034b50
	sigDescriptor    = 0x08074b50
	sigCentralHeader = 0x02014b50
	sigEndRecord     = 0x06054b50

	// 2.0 is the first version with data descriptors; 3 in the high byte is unix
	versionNeeded = 20
	versionMadeBy = 3<<8 | 20

	flagDescriptor = 0x0008
	flagUTF8       = 0x0800

	maxEntries = math.MaxUint16 - 1
	maxSize    = math.MaxUint32 - 1

	chunkSize = 32 * 1024
)

var (
	ErrTooManyEntries = errors.New("zipstream: too many entries")
	ErrTooLarge       = errors.New("zipstream: archive exceeds 4 GiB")
	ErrSizeChanged    = errors.New("zipstream: entry size changed while streaming")
)

// Entry is one file of the archive. Size must be exact; Open is called once
// per production run, right before the entry's data is needed.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
	Open    func() (io.ReadCloser, error)
}

// BytesEntry wraps an in-memory payload.
func BytesEntry(name string, data []byte, modTime time.Time) Entry {
	return Entry{
		Name:    name,
		Size:    int64(len(data)),
		ModTime: modTime,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Archive is an immutable, validated entry list. It can be produced any
// number of times; each production run reopens the files.
type Archive struct {
	entries []Entry
	size    int64
}

// New validates entries and computes the archive size.
func New(entries []Entry) (*Archive, error) {
	if len(entries) > maxEntries {
		return nil, fmt.Errorf("%w: %d", ErrTooManyEntries, len(entries))
	}
	seen := make(map[string]struct{}, len(entries))
	var size int64 = endRecordLen
	for _, e := range entries {
		switch {
		case e.Name == "":
			return nil, errors.New("zipstream: empty entry name")
		case len(e.Name) > math.MaxUint16:
			return nil, fmt.Errorf("zipstream: entry name too long: %.40s...", e.Name)
		case e.Size < 0:
			return nil, fmt.Errorf("zipstream: negative size for %s", e.Name)
		case e.Open == nil:
			return nil, fmt.Errorf("zipstream: no opener for %s", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("zipstream: duplicate entry %s", e.Name)
		}
		seen[e.Name] = struct{}{}

		size += entryOverhead(e.Name) + e.Size
		if size > maxSize {
			return nil, ErrTooLarge
		}
	}
	return &Archive{entries: entries, size: size}, nil
}

// entryOverhead is everything an entry adds besides its data.
func entryOverhead(name string) int64 {
	n := int64(len(name))
	return localHeaderLen + n + descriptorLen + centralHeaderLen + n
}

// Size is the exact number of bytes Chunks and WriteTo will produce.
func (a *Archive) Size() int64 {
	return a.size
}

func (a *Archive) Len() int {
	return len(a.entries)
}

// Chunks lazily produces the archive. Each yielded slice is only valid until
// the next iteration step. After a non-nil error the sequence ends. Stopping
// early closes the file being read.
func (a *Archive) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		p := producer{archive: a, yield: yield, buf: make([]byte, chunkSize)}
		if err := p.run(); err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

// WriteTo streams the whole archive to w.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for chunk, err := range a.Chunks() {
		if err != nil {
			return written, err
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

var errStopped = errors.New("consumer stopped")

type record struct {
	crc    uint32
	offset uint32
}

// producer holds the state of one production run.
type producer struct {
	archive *Archive
	yield   func([]byte, error) bool
	buf     []byte
	offset  int64
	records []record
}

func (p *producer) emit(b []byte) error {
	if !p.yield(b, nil) {
		return errStopped
	}
	p.offset += int64(len(b))
	return nil
}

func (p *producer) run() error {
	p.records = make([]record, 0, len(p.archive.entries))
	for _, e := range p.archive.entries {
		if err := p.entry(e); err != nil {
			return err
		}
	}
	return p.centralDirectory()
}

func (p *producer) entry(e Entry) error {
	p.records = append(p.records, record{offset: uint32(p.offset)})
	if err := p.emit(localHeader(e)); err != nil {
		return err
	}

	crc, err := p.data(e)
	if err != nil {
		return err
	}
	p.records[len(p.records)-1].crc = crc

	d := make([]byte, descriptorLen)
	binary.LittleEndian.PutUint32(d[0:], sigDescriptor)
	binary.LittleEndian.PutUint32(d[4:], crc)
	binary.LittleEndian.PutUint32(d[8:], uint32(e.Size))
	binary.LittleEndian.PutUint32(d[12:], uint32(e.Size))
	return p.emit(d)
}

// data streams one entry's content, checking it is exactly e.Size bytes long.
func (p *producer) data(e Entry) (uint32, error) {
	rc, err := e.Open()
	if err != nil {
		return 0, fmt.Errorf("zipstream: open %s: %w", e.Name, err)
	}
	defer rc.Close()

	hash := crc32.NewIEEE()
	remaining := e.Size
	for remaining > 0 {
		n, err := rc.Read(p.buf[:min(int64(len(p.buf)), remaining)])
		if n > 0 {
			hash.Write(p.buf[:n])
			remaining -= int64(n)
			if emitErr := p.emit(p.buf[:n]); emitErr != nil {
				return 0, emitErr
			}
		}
		if err == io.EOF {
			if remaining > 0 {
				return 0, fmt.Errorf("%w: %s is %d bytes short", ErrSizeChanged, e.Name, remaining)
			}
			break
		}
		if err != nil {
			return 0, fmt.Errorf("zipstream: read %s: %w", e.Name, err)
		}
	}
	// a longer file would silently truncate
	var extra [1]byte
	if n, _ := io.ReadFull(rc, extra[:]); n > 0 {
		return 0, fmt.Errorf("%w: %s grew", ErrSizeChanged, e.Name)
	}
	return hash.Sum32(), nil
}

func (p *producer) centralDirectory() error {
	start := p.offset
	var cdSize int
	for _, e := range p.archive.entries {
		cdSize += centralHeaderLen + len(e.Name)
	}
	cd := make([]byte, 0, cdSize+endRecordLen)
	for i, e := range p.archive.entries {
		cd = append(cd, centralHeader(e, p.records[i])...)
	}

	end := make([]byte, endRecordLen)
	binary.LittleEndian.PutUint32(end[0:], sigEndRecord)
	binary.LittleEndian.PutUint16(end[8:], uint16(len(p.archive.entries)))
	binary.LittleEndian.PutUint16(end[10:], uint16(len(p.archive.entries)))
	binary.LittleEndian.PutUint32(end[12:], uint32(cdSize))
	binary.LittleEndian.PutUint32(end[16:], uint32(start))
	return p.emit(append(cd, end...))
}

func localHeader(e Entry) []byte {
	b := make([]byte, localHeaderLen+len(e.Name))
	dosTime, dosDate := msDosTime(e.ModTime)
	binary.LittleEndian.PutUint32(b[0:], sigLocalHeader)
	binary.LittleEndian.PutUint16(b[4:], versionNeeded)
	binary.LittleEndian.PutUint16(b[6:], flagDescriptor|flagUTF8)
	binary.LittleEndian.PutUint16(b[8:], 0) // stored
	binary.LittleEndian.PutUint16(b[10:], dosTime)
	binary.LittleEndian.PutUint16(b[12:], dosDate)
	// crc and sizes (14..25) stay zero, they follow in the data descriptor
	binary.LittleEndian.PutUint16(b[26:], uint16(len(e.Name)))
	binary.LittleEndian.PutUint16(b[28:], 0)
	copy(b[localHeaderLen:], e.Name)
	return b
}

func centralHeader(e Entry, r record) []byte {
	b := make([]byte, centralHeaderLen+len(e.Name))
	dosTime, dosDate := msDosTime(e.ModTime)
	binary.LittleEndian.PutUint32(b[0:], sigCentralHeader)
	binary.LittleEndian.PutUint16(b[4:], versionMadeBy)
	binary.LittleEndian.PutUint16(b[6:], versionNeeded)
	binary.LittleEndian.PutUint16(b[8:], flagDescriptor|flagUTF8)
	binary.LittleEndian.PutUint16(b[10:], 0)
	binary.LittleEndian.PutUint16(b[12:], dosTime)
	binary.LittleEndian.PutUint16(b[14:], dosDate)
	binary.LittleEndian.PutUint32(b[16:], r.crc)
	binary.LittleEndian.PutUint32(b[20:], uint32(e.Size))
	binary.LittleEndian.PutUint32(b[24:], uint32(e.Size))
	binary.LittleEndian.PutUint16(b[28:], uint16(len(e.Name)))
	// extra, comment, disk number, internal attributes (30..37) stay zero
	binary.LittleEndian.PutUint32(b[38:], 0o100644<<16) // regular file, rw-r--r--
	binary.LittleEndian.PutUint32(b[42:], r.offset)
	copy(b[centralHeaderLen:], e.Name)
	return b
}

// msDosTime encodes t in the MS-DOS format, which covers 1980 to 2107 with
// two-second resolution. Earlier or zero times clamp to 1980-01-01, later
// ones to 2107-12-31 23:59:58.
func msDosTime(t time.Time) (dosTime, dosDate uint16) {
	if t.Year() < 1980 {
		return 0, 1<<5 | 1
	}
	if t.Year() > 2107 {
		return 23<<11 | 59<<5 | 29, 127<<9 | 12<<5 | 31
	}
	dosDate = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	dosTime = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return dosTime, dosDate
}
