package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"

	"github.com/chaisql/structbin/cmd/structbin/commands"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	app := commands.NewApp()
	app.Writer = &out

	err := app.Run(append([]string{"structbin"}, args...))
	require.NoError(t, err)
	return out.String()
}

func TestEncodeDecode(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"name": "string", "tags": [{"$enum": ["a", "b"]}]}`)
	input := writeFile(t, dir, "in.json", `{"name": "brick", "tags": ["b", "a"]}`)
	bin := filepath.Join(dir, "out.bin")
	output := filepath.Join(dir, "out.json")

	for _, flags := range [][]string{nil, {"--legacy"}, {"--big-endian"}} {
		t.Run(strings.Join(flags, " "), func(t *testing.T) {
			run(t, append(append([]string{"encode", "-s", schema, "-o", bin}, flags...), input)...)
			run(t, append(append([]string{"decode", "-s", schema, "-o", output}, flags...), bin)...)

			got, err := os.ReadFile(output)
			require.NoError(t, err)
			require.JSONEq(t, `{"name": "brick", "tags": ["b", "a"]}`, string(got))
		})
	}

	out := run(t, "inspect", "-s", schema, bin)
	require.Contains(t, out, "references: 1")
	require.Contains(t, out, "enum: 2")
	require.Contains(t, out, "string: 1")
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "assets.db")

	material := writeFile(t, dir, "material.json", `{"color": ["uint8", "uint8", "uint8"]}`)
	red := writeFile(t, dir, "red.json", `{"color": [255, 0, 0]}`)
	const redID = "6f1b5a36-6a43-4c8e-9a86-2f6b7d1f6f01"
	const aliasID = "6f1b5a36-6a43-4c8e-9a86-2f6b7d1f6f02"

	out := run(t, "assets", "put", "-d", db, "-s", material, "--id", redID, red)
	require.Equal(t, redID+"\n", out)

	run(t, "assets", "alias", "-d", db, aliasID, redID)

	out = run(t, "assets", "get", "-d", db, aliasID)
	require.JSONEq(t, `{"color": [255, 0, 0]}`, out)

	out = run(t, "assets", "list", "-d", db)
	require.Equal(t, redID+"\n", out)

	out = run(t, "assets", "dump", "-d", db)
	require.Contains(t, out, "asset "+redID)
	require.Contains(t, out, "alias "+aliasID+" -> "+redID)

	scene := writeFile(t, dir, "scene.json", `{"material": "asset_uuid"}`)
	input := writeFile(t, dir, "in.json", `{"material": "`+aliasID+`"}`)
	bin := filepath.Join(dir, "scene.bin")

	run(t, "encode", "-s", scene, "--db", db, "-o", bin, input)

	out = run(t, "inspect", "-s", scene, bin)
	require.Contains(t, out, "assets: 1\n  "+redID)

	output := filepath.Join(dir, "out.json")
	run(t, "decode", "-s", scene, "--db", db, "-o", output, bin)
	got, err := os.ReadFile(output)
	require.NoError(t, err)
	require.JSONEq(t, `{"material": {"color": [255, 0, 0]}}`, string(got))

	run(t, "assets", "rm", "-d", db, redID)
	out = run(t, "assets", "list", "-d", db)
	require.Empty(t, out)
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	require.True(t, strings.HasPrefix(out, "structbin "), out)
}

func TestLogLevel(t *testing.T) {
	t.Setenv("STRUCTBIN_LOG_LEVEL", "debug")
	run(t, "version")
	require.Equal(t, logging.DEBUG, logging.GetLevel("codec"))

	t.Setenv("STRUCTBIN_LOG_LEVEL", "")
	run(t, "version")
	require.Equal(t, logging.WARNING, logging.GetLevel("codec"))
}
