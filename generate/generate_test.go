package generate

import (
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clockInterface = "github.com/panagiotisptr/proxychain/example/clock.Clock"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMethodData(t *testing.T) {
	md := MethodData{
		Name:   "Format",
		Params: []MethodParam{"string", "...string"},
		Rets:   []string{"string", "error"},
	}

	assert.Equal(t, "arg0 string, arg1 ...string", md.Signature())
	assert.Equal(t, "arg0, arg1", md.ArgList())
	assert.Equal(t, "caster.Cast[string](args[0]), caster.Cast[[]string](args[1])...", md.CallArgs())
	assert.Equal(t, "(string, error)", md.Results())
	assert.Equal(t, "res0, res1", md.ResultVars())
	assert.Equal(t, "caster.At[string](rets, 0), caster.Error(rets)", md.ReturnExprs())

	t.Run("Single and missing results", func(t *testing.T) {
		assert.Equal(t, "int", MethodData{Rets: []string{"int"}}.Results())
		assert.Equal(t, "", MethodData{}.Results())
		assert.Equal(t, "", MethodData{}.Signature())
	})

	t.Run("Only a trailing error is read with caster.Error", func(t *testing.T) {
		md := MethodData{Rets: []string{"error", "int"}}
		assert.Equal(t, "caster.At[error](rets, 0), caster.At[int](rets, 1)", md.ReturnExprs())
	})
}

func TestPrepare(t *testing.T) {
	data := InterfaceData{
		InterfaceName:       "Store",
		OriginalPackageName: "store",
		ImplementationType:  "importstoreStore0.Store",
		Imports: []*ImportData{
			{Path: "example.com/store", Alias: "importstoreStore0", PkgName: "store", InterfaceName: "Store"},
			{Path: "context", Alias: "importstoreStore1", PkgName: "store", InterfaceName: "Store", Used: true},
			{Path: "io", Alias: "importstoreStore2", PkgName: "store", InterfaceName: "Store"},
			{Path: "time", Alias: "importstoreStore11", PkgName: "store", InterfaceName: "Store", Used: true},
		},
		Methods: []*MethodData{
			{
				Name:   "Get",
				Params: []MethodParam{"importstoreStore1.Context", "...importstoreStore11.Duration"},
				Rets:   []string{"*importstoreStore0.Item", "error"},
			},
		},
	}

	t.Run("Keeps the interface package when generating elsewhere", func(t *testing.T) {
		out := prepare(data, "example.com/store", "storeproxy")

		require.Len(t, out.Imports, 3)
		assert.Equal(t, "example.com/store", out.Imports[0].Path)
		assert.Equal(t, "importstoreStore0", out.Imports[0].Alias)
		assert.Equal(t, "importstoreStore1", out.Imports[1].Alias)
		assert.Equal(t, "importstoreStore2", out.Imports[2].Alias)

		assert.Equal(t, []MethodParam{"importstoreStore1.Context", "...importstoreStore2.Duration"}, out.Methods[0].Params)
		assert.Equal(t, "importstoreStore0.Store", out.ImplementationType)
	})
}

func TestPrepareSamePackage(t *testing.T) {
	data := InterfaceData{
		InterfaceName:       "Store",
		OriginalPackageName: "store",
		ImplementationType:  "Store",
		Imports: []*ImportData{
			{Path: "example.com/store", Alias: "importstoreStore0", PkgName: "store", InterfaceName: "Store"},
			{Path: "context", Alias: "importstoreStore1", PkgName: "store", InterfaceName: "Store", Used: true},
			{Path: "context", Alias: "importstoreStore1", PkgName: "store", InterfaceName: "Store", Used: true},
			{Path: "time", Alias: "importstoreStore2", PkgName: "store", InterfaceName: "Store", Used: true},
		},
		Methods: []*MethodData{
			{
				Name:   "Touch",
				Params: []MethodParam{"importstoreStore1.Context"},
				Rets:   []string{"importstoreStore2.Time"},
			},
		},
	}

	out := prepare(data, "example.com/store", "store")

	require.Len(t, out.Imports, 2)
	assert.Equal(t, "importstoreStore0", out.Imports[0].Alias)
	assert.Equal(t, "context", out.Imports[0].Path)
	assert.Equal(t, "importstoreStore1", out.Imports[1].Alias)
	assert.Equal(t, []MethodParam{"importstoreStore0.Context"}, out.Methods[0].Params)
	assert.Equal(t, []string{"importstoreStore1.Time"}, out.Methods[0].Rets)
	assert.Equal(t, "Store", out.ImplementationType)
}

func TestRender(t *testing.T) {
	content, err := Render("store", "StoreProxy", InterfaceData{
		InterfaceName:      "Store",
		ImplementationType: "Store",
		Imports: []*ImportData{
			{Path: "context", Alias: "importstoreStore0"},
		},
		Methods: []*MethodData{
			{Name: "Get", Params: []MethodParam{"importstoreStore0.Context", "string"}, Rets: []string{"[]byte", "error"}},
			{Name: "Close"},
		},
	})
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "store_proxy.go", content, parser.AllErrors)
	require.NoError(t, err)

	src := string(content)
	assert.Contains(t, src, "// Code generated by proxygen. DO NOT EDIT.")
	assert.Contains(t, src, `importstoreStore0 "context"`)
	assert.Contains(t, src, "func NewStoreProxy(")
	assert.Contains(t, src, "func StoreProxyFactory(")
	assert.Contains(t, src, "func (p *StoreProxy) Get(arg0 importstoreStore0.Context, arg1 string) ([]byte, error) {")
	assert.Contains(t, src, "res0, res1 := p.Implementation.Get(caster.Cast[importstoreStore0.Context](args[0]), caster.Cast[string](args[1]))")
	assert.Contains(t, src, "return caster.At[[]byte](rets, 0), caster.Error(rets)")
	assert.Contains(t, src, "func (p *StoreProxy) Close() {")
	assert.Contains(t, src, "p.Implementation.Close()\n\t\t\treturn nil")
}

func TestGenerateProxy(t *testing.T) {
	g := NewGenerator(discardLogger())

	t.Run("Same package", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "clock_proxy.go")
		require.NoError(t, g.GenerateProxy(clockInterface, "clock", "ClockProxy", out))

		content, err := os.ReadFile(out)
		require.NoError(t, err)
		src := string(content)

		assert.Contains(t, src, "package clock\n")
		assert.Contains(t, src, `importclockClock0 "context"`)
		assert.Contains(t, src, `importclockClock1 "time"`)
		assert.Contains(t, src, "Implementation Clock\n")
		assert.Contains(t, src, "func (p *ClockProxy) Now(arg0 importclockClock0.Context) (importclockClock1.Time, error) {")
		assert.Contains(t, src, "func (p *ClockProxy) Format(arg0 string, arg1 ...string) string {")
		assert.Contains(t, src, "caster.Cast[[]string](args[1])...")
		assert.Contains(t, src, "func (p *ClockProxy) Reset() {")
		assert.NotContains(t, src, "proxychain/example/clock\"")
	})

	t.Run("Other package", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "clock_proxy.go")
		require.NoError(t, g.GenerateProxy(clockInterface, "clockproxy", "ClockProxy", out))

		content, err := os.ReadFile(out)
		require.NoError(t, err)
		src := string(content)

		assert.Contains(t, src, "package clockproxy\n")
		assert.Contains(t, src, `importclockClock0 "github.com/panagiotisptr/proxychain/example/clock"`)
		assert.Contains(t, src, "Implementation importclockClock0.Clock\n")
		assert.Contains(t, src, "func (p *ClockProxy) Now(arg0 importclockClock1.Context) (importclockClock2.Time, error) {")
	})

	t.Run("Rejects a path without an interface", func(t *testing.T) {
		err := g.GenerateProxy("clock", "clock", "ClockProxy", filepath.Join(t.TempDir(), "x.go"))
		assert.ErrorContains(t, err, "invalid interface path")
	})

	t.Run("Reports a missing interface", func(t *testing.T) {
		err := g.GenerateProxy(
			"github.com/panagiotisptr/proxychain/example/clock.Calendar",
			"clock",
			"CalendarProxy",
			filepath.Join(t.TempDir(), "x.go"),
		)
		assert.ErrorContains(t, err, "interface Calendar not found")
	})
}

func TestPackageDirs(t *testing.T) {
	g := NewGenerator(discardLogger())

	dirs, err := g.PackageDirs("github.com/panagiotisptr/proxychain/example/clock")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "clock", filepath.Base(dirs[0]))
	assert.True(t, filepath.IsAbs(dirs[0]))
	assert.FileExists(t, filepath.Join(dirs[0], "clock.go"))
}
