package streets

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// SerializeIndex encodes a built Index to bytes using gob encoding, for
// disk-based caching that avoids re-parsing large network GeoJSON on every
// run. Safe for concurrent use once the index is fully constructed.
func SerializeIndex(index *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(index); err != nil {
		return nil, fmt.Errorf("failed to encode street index: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeIndex decodes an Index previously produced by SerializeIndex.
func DeserializeIndex(data []byte) (*Index, error) {
	var index Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode street index: %w", err)
	}
	return &index, nil
}

// SaveIndexFile writes a built Index to path.
func SaveIndexFile(index *Index, path string) error {
	data, err := SerializeIndex(index)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadIndexFile reads an Index from path.
func LoadIndexFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index cache: %w", err)
	}
	return DeserializeIndex(data)
}

// LoadIndexIfFresh loads a cached Index only when the cache file is newer
// than the network source it was built from. A missing or stale cache
// returns (nil, nil); the caller rebuilds and re-saves.
func LoadIndexIfFresh(cachePath, sourcePath string) (*Index, error) {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return nil, nil
	}
	srcInfo, err := os.Stat(sourcePath)
	if err == nil && srcInfo.ModTime().After(cacheInfo.ModTime()) {
		return nil, nil
	}
	idx, err := LoadIndexFile(cachePath)
	if err != nil {
		// an unreadable cache counts as missing
		return nil, nil
	}
	return idx, nil
}
