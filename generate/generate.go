// Package generate renders interface-implementing proxy structs for Go
// interfaces. Every generated method routes its call through an
// interceptor.InterceptorChain before reaching the wrapped implementation.
package generate

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/panagiotisptr/proxychain/generate/templates"
	"golang.org/x/tools/go/packages"
)

type ImportData struct {
	Path          string
	Name          string
	Alias         string
	PkgName       string
	InterfaceName string
	Used          bool
}

func (id ImportData) Selector() string {
	if id.Alias != "" {
		return id.Alias
	}

	return id.Name
}

type MethodParam string

func (m MethodParam) IsVariadic() bool {
	return strings.HasPrefix(string(m), "...")
}

func (m MethodParam) Type() string {
	if m.IsVariadic() {
		return "[]" + strings.TrimPrefix(string(m), "...")
	}

	return string(m)
}

type MethodData struct {
	Name   string
	Params []MethodParam
	Rets   []string
}

// Signature renders the parameter list of the proxy method.
func (md MethodData) Signature() string {
	parts := make([]string, len(md.Params))
	for i, p := range md.Params {
		parts[i] = fmt.Sprintf("arg%d %s", i, p)
	}

	return strings.Join(parts, ", ")
}

// ArgList renders the arguments handed to the interceptor chain. Variadic
// arguments travel as a single slice.
func (md MethodData) ArgList() string {
	parts := make([]string, len(md.Params))
	for i := range md.Params {
		parts[i] = fmt.Sprintf("arg%d", i)
	}

	return strings.Join(parts, ", ")
}

// CallArgs renders the typed arguments passed to the implementation.
func (md MethodData) CallArgs() string {
	parts := make([]string, len(md.Params))
	for i, p := range md.Params {
		parts[i] = fmt.Sprintf("caster.Cast[%s](args[%d])", p.Type(), i)
		if p.IsVariadic() {
			parts[i] += "..."
		}
	}

	return strings.Join(parts, ", ")
}

func (md MethodData) Results() string {
	switch len(md.Rets) {
	case 0:
		return ""
	case 1:
		return md.Rets[0]
	default:
		return "(" + strings.Join(md.Rets, ", ") + ")"
	}
}

func (md MethodData) ResultVars() string {
	parts := make([]string, len(md.Rets))
	for i := range md.Rets {
		parts[i] = fmt.Sprintf("res%d", i)
	}

	return strings.Join(parts, ", ")
}

// ReturnExprs recovers typed results. A trailing error is read with
// caster.Error so that calls short-circuited by an interceptor still report it.
func (md MethodData) ReturnExprs() string {
	parts := make([]string, len(md.Rets))
	for i, r := range md.Rets {
		if r == "error" && i == len(md.Rets)-1 {
			parts[i] = "caster.Error(rets)"
			continue
		}
		parts[i] = fmt.Sprintf("caster.At[%s](rets, %d)", r, i)
	}

	return strings.Join(parts, ", ")
}

type InterfaceData struct {
	InterfacePackage    string
	InterfaceName       string
	Imports             []*ImportData
	Methods             []*MethodData
	ImplementationType  string
	OriginalPackageName string
}

const mode packages.LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedImports

type Generator struct {
	cfg    *packages.Config
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		cfg: &packages.Config{
			Fset: token.NewFileSet(),
			Mode: mode,
			Dir:  ".",
		},
		logger: logger,
	}
}

// GenerateProxy writes a proxy named name, in package packageName, for the
// interface at interfacePath ("{package path}.{interface}") to output.
func (g *Generator) GenerateProxy(
	interfacePath string,
	packageName string,
	name string,
	output string,
) error {
	sections := strings.Split(interfacePath, ".")
	if len(sections) < 2 {
		return fmt.Errorf("invalid interface path %q, want {package}.{interface}", interfacePath)
	}
	packagePath := strings.Join(sections[:len(sections)-1], ".")
	interfaceName := sections[len(sections)-1]

	data, err := g.getInterfaceData(packagePath, interfaceName, packageName)
	if err != nil {
		return err
	}

	content, err := Render(packageName, name, prepare(data, packagePath, packageName))
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, content, 0o644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	g.logger.Info("proxy generated",
		"interface", interfacePath,
		"name", name,
		"output", output,
		"methods", len(data.Methods),
	)

	return nil
}

// prepare keeps only the imports the proxy refers to and renames them so the
// output is deterministic per file.
func prepare(
	data InterfaceData,
	packagePath string,
	packageName string,
) InterfaceData {
	// the interface's own package is needed once we generate elsewhere
	if data.OriginalPackageName != packageName {
		for _, m := range data.Imports {
			if m.Path == packagePath {
				m.Used = true
				break
			}
		}
	}

	usedImports := []*ImportData{}
	seen := map[string]bool{}
	for _, imp := range data.Imports {
		if !imp.Used || seen[imp.Alias] {
			continue
		}
		seen[imp.Alias] = true
		usedImports = append(usedImports, imp)
	}

	pairs := make([]string, 0, 2*len(usedImports))
	for i, imp := range usedImports {
		newAlias := fmt.Sprintf("import%s%s%d", imp.PkgName, imp.InterfaceName, i)
		pairs = append(pairs, imp.Alias+".", newAlias+".")
		imp.Alias = newAlias
	}
	// a single pass, so a new alias is never renamed a second time
	swap := strings.NewReplacer(pairs...).Replace
	for _, meth := range data.Methods {
		for i := range meth.Params {
			meth.Params[i] = MethodParam(swap(string(meth.Params[i])))
		}
		for i := range meth.Rets {
			meth.Rets[i] = swap(meth.Rets[i])
		}
	}
	data.ImplementationType = swap(data.ImplementationType)
	data.Imports = usedImports

	return data
}

// Render executes the proxy template and gofmt's the result.
func Render(
	packageName string,
	name string,
	data InterfaceData,
) ([]byte, error) {
	tmpl := template.Must(template.New("proxy").Parse(templates.ProxyTemplate))
	var generatedProxy bytes.Buffer
	err := tmpl.Execute(&generatedProxy, struct {
		PackageName string
		Name        string
		InterfaceData
	}{
		PackageName:   packageName,
		Name:          name,
		InterfaceData: data,
	})
	if err != nil {
		return nil, err
	}

	formattedContent, formatErr := format.Source(generatedProxy.Bytes())
	if formatErr != nil {
		return nil, fmt.Errorf("error formatting generated proxy: %w", formatErr)
	}

	return formattedContent, nil
}

func (g *Generator) getInterfaceData(
	interfacePackage string,
	interfaceName string,
	outputPkgName string,
) (InterfaceData, error) {
	data := InterfaceData{
		InterfacePackage: interfacePackage,
		InterfaceName:    interfaceName,
		Imports:          []*ImportData{},
	}
	existingImports := []*ImportData{}
	newImports := []*ImportData{}

	pkg, err := g.getPackage(interfacePackage)
	if err != nil {
		return data, err
	}

	newImports = append(newImports, &ImportData{
		Path: interfacePackage,
		Name: pkg.Name,
	})
	keys := make([]string, 0, len(pkg.Imports))
	for k := range pkg.Imports {
		keys = append(keys, k)
	}
	// sorted so that generated code is deterministic
	sort.Strings(keys)
	for _, k := range keys {
		imp := pkg.Imports[k]
		existingImports = append(existingImports, &ImportData{
			Path: imp.PkgPath,
			Name: imp.Name,
		})
		newImports = append(newImports, &ImportData{
			Path: imp.PkgPath,
			Name: imp.Name,
		})
	}

	// alias every import so nothing collides with imports merged in from
	// embedded interfaces later on
	for i := range newImports {
		newImports[i].Alias = fmt.Sprintf("import%s%s%d", pkg.Name, interfaceName, i)
		newImports[i].PkgName = pkg.Name
		newImports[i].InterfaceName = interfaceName
	}

	found := false
	for _, fileAst := range pkg.Syntax {
		ifaceTypeSpec, ifaceErr := g.getInterface(fileAst, interfaceName)
		if ifaceErr != nil {
			continue
		}
		found = true
		iface := ifaceTypeSpec.Type.(*ast.InterfaceType)
		ifaceIdent := ifaceTypeSpec.Name

		// the file may import packages under a local name
		fileImports := make([]*ImportData, len(existingImports))
		for i, imp := range existingImports {
			cp := *imp
			fileImports[i] = &cp
		}
		for _, spec := range fileAst.Imports {
			if spec.Name == nil {
				continue
			}
			p := strings.Trim(spec.Path.Value, "\"")
			for _, imp := range fileImports {
				if imp.Path == p {
					imp.Alias = spec.Name.Name
				}
			}
		}
		data.Imports = newImports

		fset := g.cfg.Fset
		filename := fset.Position(fileAst.Package).Filename

		tp, err := NewTypeProcessor(pkg, fset, filename)
		if err != nil {
			return data, err
		}

		addSelectorToLocals := pkg.Name != outputPkgName
		correct := func(t ast.Expr) string {
			return tp.correctType(
				t,
				fileImports,
				newImports,
				interfacePackage,
				addSelectorToLocals,
			)
		}

		for _, m := range iface.Methods.List {
			if m.Names == nil {
				continue
			}
			ft, ok := m.Type.(*ast.FuncType)
			if !ok {
				continue
			}

			methodData := &MethodData{
				Name: m.Names[0].Name,
			}
			if ft.Params != nil {
				for _, param := range ft.Params.List {
					for i := 0; i < max(1, len(param.Names)); i++ {
						methodData.Params = append(methodData.Params, MethodParam(correct(param.Type)))
					}
				}
			}
			if ft.Results != nil {
				for _, result := range ft.Results.List {
					for i := 0; i < max(1, len(result.Names)); i++ {
						methodData.Rets = append(methodData.Rets, correct(result.Type))
					}
				}
			}

			data.Methods = append(data.Methods, methodData)
		}
		data.ImplementationType = correct(ifaceIdent)
		data.OriginalPackageName = pkg.Name

		queue := [][2]string{}
		for _, field := range iface.Methods.List {
			// embedded interfaces are the only unnamed fields
			if len(field.Names) != 0 {
				continue
			}
			switch t := field.Type.(type) {
			case *ast.Ident:
				queue = append(queue, [2]string{interfacePackage, t.Name})
			case *ast.SelectorExpr:
				x, ok := t.X.(*ast.Ident)
				if !ok {
					continue
				}
				for _, i := range fileImports {
					if i.Selector() == x.Name {
						queue = append(queue, [2]string{i.Path, t.Sel.Name})
						break
					}
				}
			}
		}

		for _, embeddedIface := range queue {
			embeddedData, embeddedErr := g.getInterfaceData(
				embeddedIface[0],
				embeddedIface[1],
				outputPkgName,
			)
			if embeddedErr != nil {
				g.logger.Debug("skipping embedded interface",
					"package", embeddedIface[0],
					"interface", embeddedIface[1],
					"error", embeddedErr,
				)
				continue
			}

			data.Imports = append(data.Imports, embeddedData.Imports...)
			data.Methods = append(data.Methods, embeddedData.Methods...)
		}
		break
	}

	if !found {
		return data, fmt.Errorf("interface %s not found in %s", interfaceName, interfacePackage)
	}

	return data, nil
}

func (g *Generator) getPackage(pkgPath string) (
	*packages.Package,
	error,
) {
	pkgs, err := packages.Load(g.cfg, pkgPath)
	if err != nil {
		return nil, err
	}

	var pkg *packages.Package
	for _, p := range pkgs {
		if p.PkgPath == pkgPath {
			pkg = p
			break
		}
	}

	if pkg == nil {
		return nil, fmt.Errorf("package %s not found", pkgPath)
	}
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("loading package %s: %v", pkgPath, pkg.Errors[0])
	}

	return pkg, nil
}

// PackageDirs returns the directories holding the Go files of pkgPaths.
func (g *Generator) PackageDirs(pkgPaths ...string) ([]string, error) {
	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
		Dir:  g.cfg.Dir,
	}, pkgPaths...)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	dirs := []string{}
	for _, p := range pkgs {
		for _, f := range p.GoFiles {
			dir := filepath.Dir(f)
			if seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	return dirs, nil
}

func (g *Generator) getInterface(fileAst *ast.File, name string) (*ast.TypeSpec, error) {
	var rv *ast.TypeSpec
	ast.Inspect(fileAst, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.TypeSpec:
			if !t.Name.IsExported() {
				return false
			}
			if t.Name.Name != name {
				return false
			}
			if _, ok := t.Type.(*ast.InterfaceType); ok {
				rv = t
				return false
			}
		}

		return true
	})
	if rv == nil {
		return nil, fmt.Errorf("interface %s not found", name)
	}

	return rv, nil
}
