package artifact_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"

	zkaa "github.com/zkminimal/zkaa-tx"
	"github.com/zkminimal/zkaa-tx/artifact"
)

const dir = "testdata/artifacts-zk"

func TestResolveByName(t *testing.T) {
	a, err := artifact.Resolve(dir, "ZkMinimalAccount")
	require.NoError(t, err)
	require.Equal(t, "ZkMinimalAccount", a.ContractName)
	require.Equal(t, "src/ZkMinimalAccount.sol", a.SourceName)
	require.Equal(t, filepath.Join(dir, "src", "ZkMinimalAccount.sol", "ZkMinimalAccount.json"), a.Path)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x80, 0x03, 0x00, 0x00, 0x39}, a.Bytecode)

	method, ok := a.ABI.Methods["executeTransaction"]
	require.True(t, ok)
	require.Len(t, method.Inputs, 3)
	require.Equal(t, abi.TupleTy, method.Inputs[2].Type.T)
	require.Len(t, method.Inputs[2].Type.TupleElems, 16)
}

func TestResolveFullyQualified(t *testing.T) {
	a, err := artifact.Resolve(dir, "lib/system-contracts/interfaces/INonceHolder.sol:INonceHolder")
	require.NoError(t, err)
	require.Equal(t, "INonceHolder", a.ContractName)
	require.Empty(t, a.Bytecode)
	require.Contains(t, a.ABI.Methods, "getMinNonce")
}

func TestResolvePath(t *testing.T) {
	path := filepath.Join(dir, "lib", "system-contracts", "interfaces", "INonceHolder.sol", "INonceHolder.json")
	a, err := artifact.Resolve("does-not-matter", path)
	require.NoError(t, err)
	require.Equal(t, path, a.Path)
}

func TestResolveErrors(t *testing.T) {
	_, err := artifact.Resolve(dir, "Missing")
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)

	_, err = artifact.Resolve(dir, "src/Missing.sol:Missing")
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)

	_, err = artifact.Resolve(filepath.Join(t.TempDir(), "nope"), "ZkMinimalAccount")
	require.ErrorIs(t, err, artifact.ErrArtifactNotFound)

	_, err = artifact.Resolve(dir, "Dup")
	require.ErrorIs(t, err, artifact.ErrArtifactAmbiguous)

	_, err = artifact.Resolve(dir, "Broken")
	require.ErrorIs(t, err, artifact.ErrArtifactMalformed)
}

func TestParseMalformed(t *testing.T) {
	for name, data := range map[string]string{
		"not json":     `{"abi":`,
		"null abi":     `{"abi": null}`,
		"bad abi":      `{"abi": {"type": 1}}`,
		"bad bytecode": `{"abi": [], "bytecode": "0xzz"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := artifact.Parse([]byte(data))
			require.ErrorIs(t, err, artifact.ErrArtifactMalformed)
		})
	}
}

func TestLoadMinimal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"abi": []}`), 0o644))
	a, err := artifact.Load(path)
	require.NoError(t, err)
	require.Empty(t, a.ABI.Methods)
}

// The built tuple must encode against the account's compiled ABI.
func TestArtifactEncodesAccountTransaction(t *testing.T) {
	a, err := artifact.Resolve(dir, "ZkMinimalAccount")
	require.NoError(t, err)

	tx, err := zkaa.BuildTransaction(zkaa.EIP712TxType,
		"0x4Aa797E2ba4632C2ED30A35ae62218C6963f5716",
		"0x97492728f9cF41D7Bbe6D38385921308e5032C49",
		big.NewInt(1_000_000_000_000_000), big.NewInt(7), nil)
	require.NoError(t, err)

	var empty [32]byte
	input, err := a.ABI.Pack("executeTransaction", empty, empty, tx.Tuple())
	require.NoError(t, err)

	method := a.ABI.Methods["executeTransaction"]
	args, err := method.Inputs.Unpack(input[4:])
	require.NoError(t, err)
	decoded := *abi.ConvertType(args[2], new(zkaa.Transaction)).(*zkaa.Transaction)
	require.Equal(t, "7", decoded.Nonce.String())
	require.Equal(t, "113", decoded.TxType.String())
	require.Equal(t, "1000000000000000", decoded.Value.String())
}
