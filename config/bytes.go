package config

import (
	"fmt"
	"github.com/Borislavv/go-ash-feed/internal/shared/bytes"
	"gopkg.in/yaml.v3"
)

// Bytes is a byte size read from YAML either as a plain integer
// or as a human readable string like "250MB".
type Bytes int64

const (
	KB Bytes = bytes.KB
	MB Bytes = bytes.MB
	GB Bytes = bytes.GB
)

func (b *Bytes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("byte size must be a scalar, got yaml kind %d at line %d", node.Kind, node.Line)
	}
	v, err := bytes.ParseMem(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = Bytes(v)
	return nil
}

func (b Bytes) MarshalYAML() (any, error) {
	return bytes.FmtMemCompact(uint64(b)), nil
}

func (b Bytes) Int64() int64 { return int64(b) }

func (b Bytes) String() string { return bytes.FmtMem(uint64(b)) }
