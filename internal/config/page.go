package config

import (
	"net/url"
)

// Plugin setting keys under litePluginSettings.
const (
	KernelPluginID        = "@jupyterlite/pyolite-kernel-extension:kernel"
	ServiceWorkerPluginID = "@jupyterlite/server-extension:service-worker"
)

// DefaultPyodideURL is the kernel runtime loaded unless an element overrides it.
const DefaultPyodideURL = "https://cdn.jsdelivr.net/pyodide/v0.20.0/full/pyodide.mjs"

// ServiceWorkerDisabled is the serviceworkerurl attribute value that turns
// the service worker off instead of relocating it.
const ServiceWorkerDisabled = "disabled"

// Base returns the fixed page configuration for assets published under
// publicPath. The base URL is the parent of publicPath and the piplite
// index lives at pypi/all.json under it. A nil publicPath yields relative
// URLs.
func Base(publicPath *url.URL) Mapping {
	return Mapping{
		"appName":              Str("Notebook"),
		"appVersion":           Str("0.1.0-beta.9"),
		"baseUrl":              Str(resolve(publicPath, "../")),
		"appUrl":               Str("./"),
		"federated_extensions": Scalar{V: []any{}},
		"fullLabextensionsUrl": Str("./extensions"),
		"fullMathjaxUrl":       Str("https://cdnjs.cloudflare.com/ajax/libs/mathjax/2.7.5/MathJax.js"),
		"fullStaticUrl":        Str("./"),
		"licensesUrl":          Str("./lab/api/licenses"),
		"mathjaxConfig":        Str("TeX-AMS_CHTML-full,Safe"),
		"mathjaxUrl":           Str("https://cdnjs.cloudflare.com/ajax/libs/mathjax/2.7.7/MathJax.js"),
		"litePluginSettings": Mapping{
			KernelPluginID: Mapping{
				"pyodideUrl":  Str(DefaultPyodideURL),
				"pipliteUrls": Scalar{V: []any{resolve(publicPath, "./pypi/all.json")}},
			},
		},
	}
}

// Attributes are the notebook element attributes that affect page config.
type Attributes struct {
	// PyodideURL is the pyodideurl attribute.
	PyodideURL string

	// ServiceWorkerURL is the serviceworkerurl attribute, or
	// ServiceWorkerDisabled.
	ServiceWorkerURL string
}

// ElementOverrides translates element attributes into config overrides.
// Empty attributes contribute nothing.
func ElementOverrides(a Attributes) Mapping {
	settings := Mapping{}
	if a.PyodideURL != "" {
		settings[KernelPluginID] = Mapping{"pyodideUrl": Str(a.PyodideURL)}
	}
	switch a.ServiceWorkerURL {
	case "":
	case ServiceWorkerDisabled:
		settings[ServiceWorkerPluginID] = Mapping{"disabled": Scalar{V: true}}
	default:
		settings[ServiceWorkerPluginID] = Mapping{"workerUrl": Str(a.ServiceWorkerURL)}
	}
	return Mapping{"litePluginSettings": settings}
}

// Page assembles and validates the configuration for one page: Base, then
// the element overrides, then each extra override in order.
func Page(publicPath *url.URL, attrs Attributes, extra ...Value) (Value, error) {
	var v Value = Base(publicPath)
	v = Merge(v, ElementOverrides(attrs))
	for _, o := range extra {
		v = Merge(v, o)
	}
	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
