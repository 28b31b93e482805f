package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

const (
	diskOpDelete byte = 0
	diskOpSet    byte = 1

	// op, name length, payload size
	diskHeaderSize = 1 + 2 + 4
)

type diskRecordMeta struct {
	offset int64
	size   uint32
}

// DiskRepository keeps every snapshot in a single append-only log file. Each
// record is a header, the map name, then a gob encoded snapshot; delete records
// carry no payload. The latest record per name wins when the log is replayed.
type DiskRepository struct {
	file    *os.File
	mu      sync.RWMutex
	records map[string]diskRecordMeta
}

func OpenDiskRepository(path string) (*DiskRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("disk storage path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}
	repo := &DiskRepository{
		file:    f,
		records: make(map[string]diskRecordMeta),
	}
	if err := repo.loadIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return repo, nil
}

func (s *DiskRepository) loadIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind storage file: %w", err)
	}

	header := make([]byte, diskHeaderSize)
	var offset int64
	for {
		if _, err := io.ReadFull(s.file, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("truncated record header at %d: %w", offset, err)
			}
			return fmt.Errorf("read record header: %w", err)
		}
		op := header[0]
		nameLen := binary.LittleEndian.Uint16(header[1:3])
		size := binary.LittleEndian.Uint32(header[3:7])

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(s.file, name); err != nil {
			return fmt.Errorf("read record name at %d: %w", offset, err)
		}
		recordOffset := offset
		offset += int64(diskHeaderSize) + int64(nameLen) + int64(size)

		if _, err := s.file.Seek(int64(size), io.SeekCurrent); err != nil {
			return fmt.Errorf("seek past payload: %w", err)
		}
		if op == diskOpSet {
			s.records[string(name)] = diskRecordMeta{offset: recordOffset, size: size}
		} else {
			delete(s.records, string(name))
		}
	}

	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat storage file: %w", err)
	}
	if info.Size() < offset {
		return fmt.Errorf("truncated record payload: file has %d bytes, log needs %d", info.Size(), offset)
	}
	return nil
}

func (s *DiskRepository) Save(ctx context.Context, snap MapSnapshot) error {
	if err := ValidateName(snap.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := s.append(diskOpSet, snap.Name, payload.Bytes())
	if err != nil {
		return err
	}
	s.records[snap.Name] = diskRecordMeta{offset: offset, size: uint32(payload.Len())}
	return nil
}

func (s *DiskRepository) Load(ctx context.Context, name string) (MapSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return MapSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.records[name]
	if !ok {
		return MapSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	payload := make([]byte, meta.size)
	if _, err := s.file.ReadAt(payload, meta.offset+int64(diskHeaderSize+len(name))); err != nil {
		return MapSnapshot{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var snap MapSnapshot
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&snap); err != nil {
		return MapSnapshot{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, nil
}

func (s *DiskRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := s.append(diskOpDelete, name, nil); err != nil {
		return err
	}
	delete(s.records, name)
	return nil
}

func (s *DiskRepository) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

func (s *DiskRepository) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// append writes one record at the end of the log and syncs it. Callers hold mu.
func (s *DiskRepository) append(op byte, name string, payload []byte) (int64, error) {
	record := make([]byte, diskHeaderSize, diskHeaderSize+len(name)+len(payload))
	record[0] = op
	binary.LittleEndian.PutUint16(record[1:3], uint16(len(name)))
	binary.LittleEndian.PutUint32(record[3:7], uint32(len(payload)))
	record = append(record, name...)
	record = append(record, payload...)

	offset, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek storage end: %w", err)
	}
	if _, err := s.file.Write(record); err != nil {
		return 0, fmt.Errorf("write record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return 0, fmt.Errorf("sync storage file: %w", err)
	}
	return offset, nil
}
