package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/calumari/bsonwalk/internal/cli"
)

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	cmd := newCommand()
	cmd.SetArgs(append(args, "--log-level", "error"))
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	code := cli.Run(cmd, &stderr)
	return code, stderr.String()
}

func writeJSON(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestJSONToBSON(t *testing.T) {
	t.Run("positional output", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `[{"a": 1}, {"b": "x"}]`)
		out := filepath.Join(dir, "out.bson")

		code, stderr := execute(t, "-f", in, out)
		require.Equal(t, cli.ExitOK, code, stderr)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		a, err := bson.Marshal(bson.D{{Key: "a", Value: int32(1)}})
		require.NoError(t, err)
		b, err := bson.Marshal(bson.D{{Key: "b", Value: "x"}})
		require.NoError(t, err)
		assert.Equal(t, append(a, b...), got)
	})

	t.Run("output flag", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `{"a": {"$binary": "aGk="}}`)
		out := filepath.Join(dir, "out.bson")

		code, stderr := execute(t, "-f", in, "-o", out)
		require.Equal(t, cli.ExitOK, code, stderr)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		var d bson.D
		require.NoError(t, bson.Unmarshal(got, &d))
		assert.Equal(t, bson.D{{Key: "a", Value: bson.Binary{Data: []byte("hi")}}}, d)
	})

	t.Run("legacy binary strings", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `{"a": "$binary:aGk="}`)
		out := filepath.Join(dir, "out.bson")

		code, stderr := execute(t, "-f", in, out, "--legacy-binary-strings")
		require.Equal(t, cli.ExitOK, code, stderr)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		var d bson.D
		require.NoError(t, bson.Unmarshal(got, &d))
		assert.Equal(t, bson.D{{Key: "a", Value: bson.Binary{Data: []byte("hi")}}}, d)
	})

	t.Run("oversized number writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `{"n": 99999999999999999999}`)
		out := filepath.Join(dir, "out.bson")

		code, stderr := execute(t, "-f", in, out)
		assert.Equal(t, cli.ExitUnsupported, code)
		assert.Contains(t, stderr, "unsupported type")
		assert.NoFileExists(t, out)
	})

	t.Run("existing output kept on failure", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `[{"a": 1}, 2]`)
		out := filepath.Join(dir, "out.bson")
		require.NoError(t, os.WriteFile(out, []byte("old"), 0o600))

		code, _ := execute(t, "-f", in, out)
		assert.Equal(t, cli.ExitUnsupported, code)
		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "old", string(got))
	})

	t.Run("malformed json", func(t *testing.T) {
		dir := t.TempDir()
		in := writeJSON(t, dir, `{"a": `)
		out := filepath.Join(dir, "out.bson")

		code, _ := execute(t, "-f", in, out)
		assert.Equal(t, cli.ExitMalformed, code)
		assert.NoFileExists(t, out)
	})

	t.Run("no output", func(t *testing.T) {
		in := writeJSON(t, t.TempDir(), `{}`)
		code, stderr := execute(t, "-f", in)
		assert.Equal(t, cli.ExitArgument, code)
		assert.Contains(t, stderr, "an output file is required")
	})

	t.Run("conflicting outputs", func(t *testing.T) {
		in := writeJSON(t, t.TempDir(), `{}`)
		code, _ := execute(t, "-f", in, "-o", "a.bson", "b.bson")
		assert.Equal(t, cli.ExitArgument, code)
	})
}

func TestOutputPath(t *testing.T) {
	p, err := outputPath("a", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "a", p)

	p, err = outputPath("", []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, "b", p)

	_, err = outputPath("", nil)
	assert.Error(t, err)
}
