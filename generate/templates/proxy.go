// Package templates holds the text/template sources rendered by the generator.
package templates

// ProxyTemplate renders one proxy struct. Formatting is left to go/format.
const ProxyTemplate = `// Code generated by proxygen. DO NOT EDIT.

package {{.PackageName}}

import (
	"github.com/panagiotisptr/proxychain/caster"
	"github.com/panagiotisptr/proxychain/interceptor"
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

// {{.Name}} routes every {{.InterfaceName}} call through Interceptors before
// reaching Implementation.
type {{.Name}} struct {
	Implementation {{.ImplementationType}}
	Interceptors   interceptor.InterceptorChain
}

func New{{.Name}}(
	implementation {{.ImplementationType}},
	interceptors ...interceptor.Interceptor,
) *{{.Name}} {
	return &{{.Name}}{
		Implementation: implementation,
		Interceptors:   interceptors,
	}
}

// {{.Name}}Factory wraps target in a single intercepting layer. It can be
// used as a proxy.FactoryFunc.
func {{.Name}}Factory(
	target {{.ImplementationType}},
	ic interceptor.Interceptor,
) {{.ImplementationType}} {
	return New{{.Name}}(target, ic)
}
{{range .Methods}}
func (p *{{$.Name}}) {{.Name}}({{.Signature}}) {{.Results}} {
	{{if .Rets}}rets := {{end}}p.Interceptors.Apply(
		[]interface{}{ {{- .ArgList -}} },
		"{{.Name}}",
		func(args []interface{}) []interface{} {
			{{- if .Rets}}
			{{.ResultVars}} := p.Implementation.{{.Name}}({{.CallArgs}})
			return []interface{}{ {{- .ResultVars -}} }
			{{- else}}
			p.Implementation.{{.Name}}({{.CallArgs}})
			return nil
			{{- end}}
		},
	)
	{{- if .Rets}}

	return {{.ReturnExprs}}
	{{- end}}
}
{{end}}`
