// Package file implements the ledger store as a text file of three JSON
// lines: the chain, the open transactions and the known peers.
package file

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/powledger/blockchain/foundation/blockchain/storage"
)

// File represents the serialization implementation for reading and storing
// the ledger state in a single file on disk. This implements the
// storage.Store interface.
type File struct {
	path string
	mu   sync.Mutex
}

// New constructs a File value for the specified node. The file lives in
// dbPath and is named after the node id.
func New(dbPath string, nodeID string) (*File, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	f := File{
		path: filepath.Join(dbPath, fmt.Sprintf("blockchain-%s.txt", nodeID)),
	}

	return &f, nil
}

// Path returns the location of the file on disk.
func (f *File) Path() string {
	return f.path
}

// Close in this implementation has nothing to do since the file is opened
// and closed on every load and save.
func (f *File) Close() error {
	return nil
}

// Load reads the three lines back into a snapshot.
func (f *File) Load() (storage.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Snapshot{}, storage.ErrNoState
		}
		return storage.Snapshot{}, err
	}

	var lines [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		lines = append(lines, append([]byte{}, scanner.Bytes()...))
	}

	if err := scanner.Err(); err != nil {
		return storage.Snapshot{}, err
	}

	if len(lines) < 3 {
		return storage.Snapshot{}, fmt.Errorf("expected 3 lines, got %d", len(lines))
	}

	docs := storage.Documents{
		Chain:   lines[0],
		Mempool: lines[1],
		Peers:   lines[2],
	}

	return storage.Decode(docs)
}

// Save writes the snapshot to a temporary file and moves it over the
// previous one so a failed write never leaves a partial file behind.
func (f *File) Save(snapshot storage.Snapshot) error {
	docs, err := storage.Encode(snapshot)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, line := range [][]byte{docs.Chain, docs.Mempool, docs.Peers} {
		buf.Write(line)
		buf.WriteByte('\n')
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
