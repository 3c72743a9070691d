// Package metadata signs generated reports with a hash-stamped trailer block
// and verifies them later.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Info identifies the run that produced a report.
type Info struct {
	GeneratedAt time.Time
	RunID       string
	Source      string
}

// Metadata is the parsed trailer block of a signed report.
type Metadata struct {
	GeneratedAt time.Time
	RunID       string
	Source      string
	Hash        string
}

// Info returns the run fields of the block, without the hash.
func (m *Metadata) Info() Info {
	return Info{GeneratedAt: m.GeneratedAt, RunID: m.RunID, Source: m.Source}
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract removes the metadata block from content and returns both the
// metadata and the cleaned content. The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := metadataRegex.ReplaceAllString(content, "")
	cleanContent = strings.TrimRight(cleanContent, "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	for _, line := range strings.Split(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			meta.RunID = val
		case "SOURCE":
			meta.Source = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content (excluding metadata).
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any existing metadata block with a fresh one carrying info
// and the hash of the content.
func Sign(content string, info Info) string {
	_, clean := Extract(content)

	generatedAt := info.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	var sb strings.Builder

	sb.WriteString(clean)
	sb.WriteString("\n\n")
	sb.WriteString(TagStart + "\n")

	if info.RunID != "" {
		fmt.Fprintf(&sb, "RUN_ID: %s\n", info.RunID)
	}

	if info.Source != "" {
		fmt.Fprintf(&sb, "SOURCE: %s\n", strings.ReplaceAll(info.Source, "\n", " "))
	}

	fmt.Fprintf(&sb, "GENERATED_AT: %s\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "HASH: %s\n", CalculateHash(clean))
	sb.WriteString(TagEnd)

	return sb.String()
}

// Verify checks that content matches the hash in its metadata block.
func Verify(content string) (*Metadata, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	if calculated := CalculateHash(clean); calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
