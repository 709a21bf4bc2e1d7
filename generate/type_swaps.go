package generate

import (
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
)

// TypeProcessor rewrites type expressions from the interface's source file so
// they resolve from the generated file.
type TypeProcessor struct {
	defs    map[string]types.Object
	fset    *token.FileSet
	content []byte
}

func NewTypeProcessor(
	pkg *packages.Package,
	fset *token.FileSet,
	interfaceFile string,
) (*TypeProcessor, error) {
	defs := make(map[string]types.Object)

	for _, t := range pkg.TypesInfo.Defs {
		if t == nil {
			continue
		}
		if _, ok := t.(*types.TypeName); !ok {
			continue
		}
		// only package level types can be referenced from another package
		if t.Parent() != pkg.Types.Scope() {
			continue
		}
		if _, ok := defs[t.Name()]; ok {
			continue
		}
		defs[t.Name()] = t
	}
	content, err := os.ReadFile(interfaceFile)
	if err != nil {
		return nil, err
	}

	return &TypeProcessor{
		defs:    defs,
		fset:    fset,
		content: content,
	}, nil
}

func (tp *TypeProcessor) source(n ast.Node) string {
	start := tp.fset.Position(n.Pos())
	end := tp.fset.Position(n.End())

	return string(tp.content[start.Offset:end.Offset])
}

func (tp *TypeProcessor) correctType(
	t ast.Expr,
	existingImports []*ImportData,
	newImports []*ImportData,
	pkgPath string,
	addSelectorToLocals bool,
) string {
	correctTypeProxy := func(t ast.Expr) string {
		return tp.correctType(t, existingImports, newImports, pkgPath, addSelectorToLocals)
	}
	fieldList := func(fl *ast.FieldList) []string {
		if fl == nil {
			return nil
		}
		out := []string{}
		for _, f := range fl.List {
			for i := 0; i < max(1, len(f.Names)); i++ {
				out = append(out, correctTypeProxy(f.Type))
			}
		}
		return out
	}

	switch t := t.(type) {
	case *ast.Ident:
		if _, ok := tp.defs[t.Name]; ok && addSelectorToLocals {
			for i := range newImports {
				if newImports[i].Path == pkgPath {
					newImports[i].Used = true
					return newImports[i].Alias + "." + t.Name
				}
			}
		}
		return t.Name
	case *ast.StarExpr:
		return "*" + correctTypeProxy(t.X)
	case *ast.Ellipsis:
		return "..." + correctTypeProxy(t.Elt)
	case *ast.SelectorExpr:
		selectorPkg := tp.source(t.X)
		for _, i := range existingImports {
			if i.Selector() == selectorPkg {
				for idx := range newImports {
					if newImports[idx].Path == i.Path {
						newImports[idx].Used = true
						return newImports[idx].Alias + "." + t.Sel.Name
					}
				}
			}
		}
		return selectorPkg + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len != nil {
			return "[" + tp.source(t.Len) + "]" + correctTypeProxy(t.Elt)
		}
		return "[]" + correctTypeProxy(t.Elt)
	case *ast.MapType:
		return "map[" + correctTypeProxy(t.Key) + "]" + correctTypeProxy(t.Value)
	case *ast.ChanType:
		switch t.Dir {
		case ast.RECV:
			return "<-chan " + correctTypeProxy(t.Value)
		case ast.SEND:
			return "chan<- " + correctTypeProxy(t.Value)
		default:
			return "chan " + correctTypeProxy(t.Value)
		}
	case *ast.FuncType:
		rets := fieldList(t.Results)
		out := "func(" + strings.Join(fieldList(t.Params), ", ") + ")"
		switch len(rets) {
		case 0:
		case 1:
			out += " " + rets[0]
		default:
			out += " (" + strings.Join(rets, ", ") + ")"
		}
		return out
	case *ast.ParenExpr:
		return "(" + correctTypeProxy(t.X) + ")"
	default:
		return tp.source(t)
	}
}
