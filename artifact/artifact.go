// Package artifact loads compiled contract artifacts as written by hardhat
// and hardhat-zksync.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrArtifactMalformed = errors.New("artifact malformed")
	ErrArtifactAmbiguous = errors.New("artifact name is ambiguous")
)

// Artifact is a compiled contract description.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
	Path         string
}

type artifactJSON struct {
	Format       string          `json:"_format"`
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// Load reads the artifact at path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.Path = path
	return a, nil
}

// Parse decodes an artifact. Only the abi field is required.
func Parse(data []byte) (*Artifact, error) {
	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMalformed, err)
	}
	if len(raw.ABI) == 0 || bytes.Equal(bytes.TrimSpace(raw.ABI), []byte("null")) {
		return nil, fmt.Errorf("%w: missing abi field", ErrArtifactMalformed)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: abi: %v", ErrArtifactMalformed, err)
	}

	a := &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsed,
	}
	if raw.Bytecode != "" && raw.Bytecode != "0x" {
		code, err := hexutil.Decode(raw.Bytecode)
		if err != nil {
			return nil, fmt.Errorf("%w: bytecode: %v", ErrArtifactMalformed, err)
		}
		a.Bytecode = code
	}
	return a, nil
}

// Resolve finds an artifact inside an artifacts directory. ref is either
// a path to a JSON file, a fully qualified name ("contracts/A.sol:A") or a
// bare contract name, which must be unique in dir.
func Resolve(dir, ref string) (*Artifact, error) {
	if strings.HasSuffix(ref, ".json") {
		return Load(ref)
	}
	if source, name, ok := strings.Cut(ref, ":"); ok {
		return Load(filepath.Join(dir, source, name+".json"))
	}

	var matches []string
	want := ref + ".json"
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifacts directory %s", ErrArtifactNotFound, dir)
		}
		return nil, fmt.Errorf("search artifacts in %s: %w", dir, err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, ref, dir)
	case 1:
		return Load(matches[0])
	default:
		return nil, fmt.Errorf("%w: %s matches %s", ErrArtifactAmbiguous, ref, strings.Join(matches, ", "))
	}
}
